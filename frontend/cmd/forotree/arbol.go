package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/itchan-dev/foro/frontend/internal/apiclient"
	"github.com/itchan-dev/foro/frontend/internal/replytree"
	"github.com/itchan-dev/foro/shared/domain"
)

var (
	arbolNest    bool
	arbolTimeout time.Duration
)

// arbolCmd prints a forum's reply tree
var arbolCmd = &cobra.Command{
	Use:   "arbol <idforo>",
	Short: "Print the reply tree of a forum",
	Long: `Loads the forum's replies the way the forum page does: the tree
endpoint first, the flat list when it fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runArbol,
}

func init() {
	arbolCmd.Flags().BoolVar(&arbolNest, "nest", false, "rebuild nesting from parent ids when falling back to the flat list")
	arbolCmd.Flags().DurationVar(&arbolTimeout, "timeout", 30*time.Second, "overall timeout")
}

func runArbol(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw := cfg.Public.Gateway
	client := apiclient.New(gw.BaseURL, gw.Timeout, apiclient.RetryPolicy{MaxAttempts: gw.RetryAttempts, Step: gw.RetryStep})
	fetcher := replytree.NewFetcher(client, arbolNest || cfg.Public.Replies.NestFlatFallback)

	ctx, cancel := context.WithTimeout(cmd.Context(), arbolTimeout)
	defer cancel()

	forest, err := fetcher.Load(ctx, domain.ForumId(args[0]))
	if err != nil {
		return err
	}
	printTree(cmd.OutOrStdout(), forest)
	return nil
}

// printTree writes one line per reply, indented by depth, then the total.
func printTree(w io.Writer, forest []*domain.ReplyNode) {
	replytree.Walk(forest, func(n *domain.ReplyNode, depth int) bool {
		r := n.Value
		fmt.Fprintf(w, "%s- [%s] %s: %s\n", strings.Repeat("  ", depth), r.Id, r.AuthorDisplayName, firstLine(r.Message))
		return true
	})
	fmt.Fprintf(w, "total: %d\n", replytree.Count(forest))
}

func firstLine(s string) string {
	line, _, cut := strings.Cut(s, "\n")
	if cut {
		return line + " …"
	}
	return line
}
