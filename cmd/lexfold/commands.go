package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/lexfold/internal/config"
	"github.com/dshills/lexfold/internal/document"
	"github.com/dshills/lexfold/internal/language"
	"github.com/dshills/lexfold/internal/syntax/fold"
)

func newTokensCmd(opts *rootOptions) *cobra.Command {
	var showStates bool
	cmd := &cobra.Command{
		Use:   "tokens FILE",
		Short: "Print the tokens of every line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			doc, err := e.open(args[0])
			if err != nil {
				return err
			}
			defer doc.Close()
			return printTokens(cmd.OutOrStdout(), doc, showStates)
		},
	}
	cmd.Flags().BoolVarP(&showStates, "states", "s", false, "print each line's incoming and outgoing continuation state")
	return cmd
}

func printTokens(w io.Writer, doc *document.Document, showStates bool) error {
	for i := 0; i < doc.LineCount(); i++ {
		line, err := doc.Line(i)
		if err != nil {
			return err
		}
		if showStates {
			fmt.Fprintf(w, "%d [%s -> %s]\n", i+1, line.In, line.Out)
		} else {
			fmt.Fprintf(w, "%d\n", i+1)
		}
		for _, tok := range line.Tokens {
			fmt.Fprintf(w, "  %d-%d %s %q\n", tok.Start, tok.End, tok.Type, tok.Text)
		}
	}
	return nil
}

func newFoldsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "folds FILE",
		Short: "Print the fold tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			doc, err := e.open(args[0])
			if err != nil {
				return err
			}
			defer doc.Close()
			if err := doc.Reparse(cmd.Context()); err != nil {
				return err
			}
			printFolds(cmd.OutOrStdout(), doc.Folds().Tree())
			return nil
		},
	}
}

func printFolds(w io.Writer, tree *fold.Tree) {
	depth := make(map[fold.ID]int, tree.Len())
	tree.Walk(func(f fold.Fold) bool {
		d := 0
		if f.Parent != fold.NoID {
			d = depth[f.Parent] + 1
		}
		depth[f.ID] = d

		end := fmt.Sprint(f.End)
		if f.Unterminated() {
			end = "EOF"
		}
		fmt.Fprintf(w, "%s%s lines %d-%d [%d,%s)\n",
			strings.Repeat("  ", d), f.Kind, f.StartLine+1, f.EndLine+1, f.Start, end)
		return true
	})
}

func newViewCmd(opts *rootOptions) *cobra.Command {
	var collapse []string
	cmd := &cobra.Command{
		Use:   "view FILE",
		Short: "Print the visible lines with folds collapsed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(collapse)
			if err != nil {
				return err
			}
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			doc, err := e.open(args[0])
			if err != nil {
				return err
			}
			defer doc.Close()
			if err := doc.Reparse(cmd.Context()); err != nil {
				return err
			}
			m := doc.Folds()
			for _, k := range kinds {
				m.CollapseAll(k)
			}
			return printVisible(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().StringSliceVar(&collapse, "collapse", []string{"code"}, "fold kinds to collapse (code, comment, imports)")
	return cmd
}

func parseKinds(names []string) ([]fold.Kind, error) {
	kinds := make([]fold.Kind, 0, len(names))
	for _, name := range names {
		k, ok := fold.ParseKind(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown fold kind %q", name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// printVisible prints the lines left visible, marking where lines are
// hidden.
func printVisible(w io.Writer, doc *document.Document) error {
	m := doc.Folds()
	for line := 0; line >= 0 && line < doc.LineCount(); line = m.VisibleLineBelow(line) {
		text, err := doc.LineText(line)
		if err != nil {
			return err
		}
		if f, ok := m.FoldAtLine(line); ok && f.Collapsed {
			fmt.Fprintf(w, "%4d  %s ... (%d lines)\n", line+1, text, f.HiddenLines())
			continue
		}
		fmt.Fprintf(w, "%4d  %s\n", line+1, text)
	}
	fmt.Fprintf(w, "-- %d of %d lines visible\n", m.VisibleLineCount(), doc.LineCount())
	return nil
}

func newLangsCmd(opts *rootOptions) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "langs",
		Short: "List the available languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			printLangs(cmd.OutOrStdout(), e.registry)
			if !watch {
				return nil
			}

			dir := e.cfg.DefinitionsPath()
			if dir == "" {
				return errors.New("no definitions_dir configured")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return e.watchLangs(ctx, cmd.OutOrStdout(), dir)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reprint the list when definition files change")
	return cmd
}

func printLangs(w io.Writer, reg *language.Registry) {
	for _, name := range reg.Names() {
		l, _ := reg.ByName(name)
		fmt.Fprintf(w, "%-12s %s\n", l.Name, strings.Join(l.Extensions, " "))
	}
}

// watchLangs reloads definitions on change until ctx is done.
func (e *env) watchLangs(ctx context.Context, w io.Writer, dir string) error {
	err := config.WatchDefinitions(ctx, dir, config.DefaultWatchDebounce, func(defs []*config.Definition, err error) {
		if err != nil {
			e.logger.Warn("definitions reload reported errors", zap.Error(err))
			if defs == nil {
				return
			}
		}
		reg, rerr := e.registryFrom(defs)
		if rerr != nil {
			e.logger.Error("rebuilding languages failed", zap.Error(rerr))
			return
		}
		e.registry = reg
		fmt.Fprintln(w, "--")
		printLangs(w, reg)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
