// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litsweep/internal/artifact"
	"github.com/pdiddy/litsweep/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage research sessions (create, extend, list, show, save)",
	Long: `Session keeps an index of research sessions in sessions.db under the
artifacts directory. Each session stores the output of pipeline stages, and
a session can be extended into a child that adds new papers to its parent's
deduplicated collection.`,
}

// --- create subcommand ---

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new session for a research topic",
	RunE:  runSessionCreate,
}

func runSessionCreate(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	parent, _ := cmd.Flags().GetString("parent")

	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.Create(cmd.Context(), topic, parent)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, sess.ID)
	return nil
}

// --- extend subcommand ---

var sessionExtendCmd = &cobra.Command{
	Use:   "extend <parent-session-id>",
	Short: "Create a child session that adds new papers to a parent",
	Long: `Extend merges the parent's deduplicated papers with the papers in --input,
dropping new papers that duplicate the parent's, and stores the result as
the deduplicated stage of a new child session.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionExtend,
}

func runSessionExtend(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	topic, _ := cmd.Flags().GetString("topic")
	dcfg := cfg.Dedup
	if cmd.Flags().Changed("aggressive") {
		dcfg.Aggressive, _ = cmd.Flags().GetBool("aggressive")
	}

	c, err := artifact.Read(input)
	if err != nil {
		return err
	}

	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := store.Extend(cmd.Context(), args[0], topic, c.All(), dcfg)
	if err != nil {
		return err
	}
	w := os.Stdout
	fmt.Fprintf(w, "Session: %s\n", res.Session.ID)
	fmt.Fprintf(w, "  Parent papers: %d\n", res.Parent)
	fmt.Fprintf(w, "  New papers:    %d\n", res.Added)
	fmt.Fprintf(w, "  Duplicates:    %d\n", res.Dedup.DuplicatesFound)
	fmt.Fprintf(w, "  Total:         %d\n", res.Total)
	return nil
}

// --- list subcommand ---

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, oldest first",
	RunE:  runSessionList,
}

func runSessionList(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		if list == nil {
			list = []session.Session{}
		}
		return artifact.Encode(os.Stdout, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stdout, "No sessions.")
		return nil
	}
	for _, s := range list {
		parent := ""
		if s.ParentID != "" {
			parent = " <- " + s.ParentID
		}
		fmt.Fprintf(os.Stdout, "%s  %-8s  %4d papers  %s%s\n",
			s.ID, s.Status, s.TotalPapers, s.Topic, parent)
	}
	return nil
}

// --- show subcommand ---

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session with its stages and children",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "json":
		return artifact.Encode(os.Stdout, sess)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(sess); err != nil {
			return eris.Wrap(err, "encoding session")
		}
		return enc.Close()
	default:
		return eris.Errorf("unknown format %q (use yaml or json)", format)
	}
}

// --- save subcommand ---

var sessionSaveCmd = &cobra.Command{
	Use:   "save <session-id>",
	Short: "Store a stage's output in a session",
	Long: `Save reads a JSON artifact and stores its records as --stage of the session:
one of search, filtered, ranked, deduplicated, or expanded. Saving the
deduplicated stage also sets the session's paper count.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionSave,
}

func runSessionSave(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	stage, _ := cmd.Flags().GetString("stage")
	if !validStage(stage) {
		return eris.Errorf("unknown stage %q", stage)
	}

	c, err := artifact.Read(input)
	if err != nil {
		return err
	}

	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return err
	}
	defer store.Close()

	records := c.All()
	if err := store.SaveStage(cmd.Context(), args[0], stage, records); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Saved %d papers to %s\n", len(records), store.StagePath(args[0], stage))
	return nil
}

// --- shared helpers ---

func validStage(stage string) bool {
	switch stage {
	case session.StageSearch, session.StageFiltered, session.StageRanked,
		session.StageDeduplicated, session.StageExpanded:
		return true
	}
	return false
}

func init() {
	sessionCreateCmd.Flags().String("topic", "", "research topic")
	sessionCreateCmd.Flags().String("parent", "", "parent session ID")
	requireFlags(sessionCreateCmd, "topic")

	sessionExtendCmd.Flags().StringP("input", "i", "", "new papers JSON (flat list or grouped by source)")
	sessionExtendCmd.Flags().String("topic", "", "topic of the child session (default: the parent's)")
	sessionExtendCmd.Flags().Bool("aggressive", false, "also match duplicates on fuzzy title similarity")
	requireFlags(sessionExtendCmd, "input")

	sessionListCmd.Flags().Bool("json", false, "output sessions as JSON")

	sessionShowCmd.Flags().String("format", "yaml", "output format: yaml or json")

	sessionSaveCmd.Flags().StringP("input", "i", "", "stage output JSON")
	sessionSaveCmd.Flags().String("stage", session.StageDeduplicated, "stage name")
	requireFlags(sessionSaveCmd, "input")

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionExtendCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionSaveCmd)

	rootCmd.AddCommand(sessionCmd)
}
