// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package engbridge provides a typed, asynchronous bridge between a driver process and an
// external engine process that evaluates code in a dynamically-typed functional language and
// stores intermediate results in a remote object store.
//
// # Architecture
//
//   - Wire codec: recursive [Data] values and length-prefixed framing over two unidirectional
//     byte streams. See [WriteCommand], [ReadCommand], [WriteReply], [ReadReply].
//   - Engine loop: [Engine] runs the single-threaded dispatch loop on the engine side, backed by
//     an [EngineStore] and a pluggable [Evaluator].
//   - Driver transport: [Transport] owns both pipes, multiplexes replies by sequence number, and
//     exposes [Transport.StoreExpr], [Transport.EvalCode], [Transport.Apply], and
//     fire-and-forget [Transport.ScheduleRemove].
//   - Handles: [Handle] is a phantom-typed, reference-counted reference to a remote [ObjectID],
//     retrieved through a [Converter] with [Retrieve].
//   - Converters: [Converter] associates a driver-side Go type with engine-side code fragments
//     and store/retrieve logic. Primitive, tuple, list, option, and identity-handle converters
//     are provided.
//   - Compile/apply: [CompileValue] and [CompileFunction] build handles from engine-code
//     strings; [Apply] invokes a compiled remote function.
//
// # Example
//
//	b, _ := engbridge.NewLocal()
//	h, _ := engbridge.CompileValue[int64](context.Background(), b.Transport(), engbridge.IntConverter{}, "42")
//	v, _ := engbridge.Retrieve[int64](context.Background(), engbridge.IntConverter{}, h)
package engbridge
