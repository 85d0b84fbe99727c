// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command engbridge-demo runs the canonical engbridge compile/apply scenarios against an
// in-process reference engine, either the built-in set or a custom list loaded from a YAML file.
package main

import (
	"context"
	"fmt"
	"os"

	"code.hybscloud.com/engbridge"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var scenariosPath string

var rootCmd = &cobra.Command{
	Use:   "engbridge-demo",
	Short: "Run engbridge compile/apply scenarios against an in-process reference engine",
	Long: `engbridge-demo exercises a Bridge backed by the in-process reference engine, either
running the built-in scenarios from the protocol's worked examples or a custom list of
compile_value snippets loaded from a --scenarios YAML file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDemo,
}

func init() {
	rootCmd.Flags().StringVar(&scenariosPath, "scenarios", "", "path to a YAML file of custom compile_value snippets to run instead of the built-ins")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// scenarioFile is the shape of a --scenarios YAML document: a flat list of named engine-code
// snippets, each compiled with compile_value<string> and printed as text.
type scenarioFile struct {
	Scenarios []struct {
		Name string `yaml:"name"`
		Code string `yaml:"code"`
	} `yaml:"scenarios"`
}

func runDemo(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	b, err := engbridge.NewLocal()
	if err != nil {
		return fmt.Errorf("starting local bridge: %w", err)
	}
	defer b.Close()

	if scenariosPath != "" {
		return runCustomScenarios(ctx, cmd, b, scenariosPath)
	}
	return runBuiltinScenarios(ctx, cmd, b)
}

func runCustomScenarios(ctx context.Context, cmd *cobra.Command, b *engbridge.Bridge, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var file scenarioFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	for _, s := range file.Scenarios {
		h, err := engbridge.CompileValue[string](ctx, b.Transport(), engbridge.StringConverter{}, s.Code)
		if err != nil {
			fmt.Fprintf(out, "%-24s FAIL: %v\n", s.Name, err)
			continue
		}
		v, err := engbridge.Retrieve[string](ctx, engbridge.StringConverter{}, h)
		h.Close()
		if err != nil {
			fmt.Fprintf(out, "%-24s FAIL: %v\n", s.Name, err)
			continue
		}
		fmt.Fprintf(out, "%-24s %s\n", s.Name, v)
	}
	return nil
}

// runBuiltinScenarios runs the protocol's own worked examples: an integer echo, a compiled
// square function, a three-element tuple round trip, a function that raises, a batch of
// concurrent stores, and a disposal check.
func runBuiltinScenarios(ctx context.Context, cmd *cobra.Command, b *engbridge.Bridge) error {
	out := cmd.OutOrStdout()
	tr := b.Transport()

	h1, err := engbridge.CompileValue[int64](ctx, tr, engbridge.IntConverter{}, "42")
	if err != nil {
		return fmt.Errorf("integer echo: %w", err)
	}
	v1, err := engbridge.Retrieve[int64](ctx, engbridge.IntConverter{}, h1)
	h1.Close()
	if err != nil {
		return fmt.Errorf("integer echo: %w", err)
	}
	fmt.Fprintf(out, "integer echo:        %d\n", v1)

	fn, err := engbridge.CompileFunction[int64, string](ctx, tr, engbridge.IntConverter{}, engbridge.StringConverter{},
		"fn i => string_of_int (i*i)")
	if err != nil {
		return fmt.Errorf("square: %w", err)
	}
	v2, err := engbridge.Apply[int64, string](ctx, tr, engbridge.IntConverter{}, engbridge.StringConverter{}, fn, 123)
	fn.Close()
	if err != nil {
		return fmt.Errorf("square: %w", err)
	}
	fmt.Fprintf(out, "square(123):          %s\n", v2)

	tupleConv := engbridge.NewTupleConverter3[int64, string, bool](
		engbridge.IntConverter{}, engbridge.StringConverter{}, engbridge.BoolConverter{})
	h3, err := tupleConv.Store(ctx, tr, engbridge.Tuple3[int64, string, bool]{V1: 7, V2: "hi", V3: true})
	if err != nil {
		return fmt.Errorf("tuple round trip: %w", err)
	}
	v3, err := tupleConv.Retrieve(ctx, tr, h3.Id())
	h3.Close()
	if err != nil {
		return fmt.Errorf("tuple round trip: %w", err)
	}
	fmt.Fprintf(out, "tuple round trip:     (%d, %q, %v)\n", v3.V1, v3.V2, v3.V3)

	_, err = engbridge.CompileValue[int64](ctx, tr, engbridge.IntConverter{}, "raise Fail \"nope\"")
	if err == nil {
		fmt.Fprintln(out, "error propagation:    FAIL: expected an error, got none")
	} else {
		fmt.Fprintf(out, "error propagation:    %v\n", err)
	}

	const n = 100
	ids := make(chan engbridge.ObjectID, n)
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			id, err := tr.StoreExpr(ctx, fmt.Sprintf("%d", i))
			ids <- id
			errCh <- err
		}()
	}
	seen := make(map[engbridge.ObjectID]bool, n)
	for i := 0; i < n; i++ {
		if err := <-errCh; err != nil {
			return fmt.Errorf("concurrent stores: %w", err)
		}
		id := <-ids
		seen[id] = true
	}
	fmt.Fprintf(out, "concurrent stores:    %d distinct ids out of %d requests\n", len(seen), n)

	h5, err := engbridge.IntConverter{}.Store(ctx, tr, 1)
	if err != nil {
		return fmt.Errorf("disposal: %w", err)
	}
	id5 := h5.Id()
	h5.Close()
	tr.FlushRemoves()
	if err := tr.Remove(ctx, []engbridge.ObjectID{id5}); err != nil {
		fmt.Fprintf(out, "disposal:             object %d already removed (%v)\n", id5, err)
	} else {
		fmt.Fprintln(out, "disposal:             FAIL: object was still present")
	}

	return nil
}
