// Command replacy checks text against a rule file from the command line.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"replacy/internal/annotate"
	"replacy/internal/hooks"
	"replacy/internal/inflect"
	"replacy/internal/replacer"
	"replacy/internal/rules"
	"replacy/pkg/options"
)

var (
	flagRules      string
	flagForms      string
	flagFormsTable string
	flagLexicon    string
	flagMultiWS    bool
	flagZeroDist   bool
	flagDebug      bool
	flagJSON       bool
)

func main() {
	root := &cobra.Command{
		Use:           "replacy",
		Short:         "rule-driven text correction",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagRules, "rules", "rules.json", "rule file (json or yaml)")
	root.PersistentFlags().StringVar(&flagForms, "forms", "", "custom forms file (json)")
	root.PersistentFlags().StringVar(&flagFormsTable, "forms-table", "", "memory-mapped forms table")
	root.PersistentFlags().StringVar(&flagLexicon, "lexicon", "", "annotator lexicon file (json)")
	root.PersistentFlags().BoolVar(&flagMultiWS, "whitespace-tolerant", false, "match across extra whitespace")
	root.PersistentFlags().BoolVar(&flagZeroDist, "filter-zero-distance", false, "drop suggestions identical to the match")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "debug logging")

	checkCmd := &cobra.Command{
		Use:   "check [text...]",
		Short: "check text and print the matched spans",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}
	checkCmd.Flags().BoolVar(&flagJSON, "json", false, "print spans as JSON")

	root.AddCommand(checkCmd)
	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "parse and compile the rule file, reporting errors",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	})
	root.AddCommand(&cobra.Command{
		Use:   "fixtures",
		Short: "run every rule's positive and negative test sentences",
		Args:  cobra.NoArgs,
		RunE:  runFixtures,
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if flagDebug {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

func buildMatcher() (*replacer.ReplaceMatcher, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	set, err := rules.LoadFile(flagRules)
	if err != nil {
		return nil, err
	}

	var stores []inflect.FormStore
	if flagForms != "" {
		store, err := inflect.LoadForms(flagForms)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	if flagFormsTable != "" {
		store, err := inflect.OpenMmap(flagFormsTable)
		if err != nil {
			return nil, err
		}
		stores = append(stores, inflect.NewCached(store))
	}
	inflector := inflect.NewEngine(logger, stores...)

	lexicon := map[string]annotate.Analysis{}
	if flagLexicon != "" {
		lexicon, err = annotate.LoadLexicon(flagLexicon)
		if err != nil {
			return nil, err
		}
	}

	opts := []options.Options{options.WithLogger(logger)}
	if flagMultiWS {
		opts = append(opts, options.WithMultipleWhitespaces())
	}
	if flagZeroDist {
		opts = append(opts, options.WithZeroDistanceFilter())
	}

	return replacer.New(set, hooks.NewRegistry(), inflector, annotate.NewSimple(lexicon), opts...)
}

func runCheck(cmd *cobra.Command, args []string) error {
	rm, err := buildMatcher()
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	spans, err := rm.Check(text)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(spans)
	}
	if len(spans) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no matches")
		return nil
	}
	for _, sp := range spans {
		fmt.Fprintf(cmd.OutOrStdout(), "%s [%d:%d] %q -> %v\n",
			sp.RuleName, sp.CharStart, sp.CharEnd, sp.Text, sp.Suggestions)
	}
	return nil
}

func runValidate(cmd *cobra.Command, _ []string) error {
	rm, err := buildMatcher()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d rules, metadata keys %v\n",
		rm.RuleCount(), rm.Attributes().Keys())
	return nil
}

func runFixtures(cmd *cobra.Command, _ []string) error {
	rm, err := buildMatcher()
	if err != nil {
		return err
	}
	failures, err := rm.RunFixtures()
	if err != nil {
		return err
	}
	if len(failures) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "all fixtures passed")
		return nil
	}
	for _, f := range failures {
		fmt.Fprintln(cmd.OutOrStdout(), f.String())
	}
	return fmt.Errorf("%d fixture(s) failed", len(failures))
}
