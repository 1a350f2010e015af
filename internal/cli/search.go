package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"pulpit/internal/retrieval"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a hybrid search against the archive",
	Long: "search fuses the lexical and semantic channels, applies series boosts, " +
		"and prints the ranked citations. Explicitly targeted documents (by date " +
		"code or full title) always rank first.",
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchK    int
	searchJSON bool
)

func init() {
	searchCmd.Flags().IntVar(&searchK, "k", 0, "number of results (default: configured top-k)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "emit results as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := args[0]

	cfg, deps, a, err := setup(ctx)
	if err != nil {
		exitWith(ExitBootstrapFail, "ERROR: "+err.Error())
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()

	if err := a.RebuildIndex(ctx); err != nil {
		exitWith(ExitBootstrapFail, "ERROR: "+err.Error())
	}

	k := searchK
	if k <= 0 {
		k = cfg.SearchTopK
	}

	results, err := a.Retrieval.Retrieve(ctx, query, k)
	if err != nil {
		exitWith(ExitGenericError, "ERROR: search failed: "+err.Error())
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []retrieval.Result) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func outputSearchTable(cmd *cobra.Command, results []retrieval.Result) error {
	if len(results) == 0 {
		cmd.Println("no results")
		return nil
	}
	for i, r := range results {
		cmd.Printf("%2d. [%.4f] %s %s, paragraph %d (pages %d-%d)\n",
			i+1, r.Score, r.DateCode, r.Title, r.ParagraphNumber, r.StartPage, r.EndPage)
		cmd.Printf("    %s\n", excerpt(r.Text, 160))
		cmd.Printf("    %s\n", r.ReferenceURL)
	}
	return nil
}

func excerpt(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
