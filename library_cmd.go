package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgnsrekt/mordoo/internal/kv"
	"github.com/dgnsrekt/mordoo/internal/library"
	"github.com/dgnsrekt/mordoo/internal/reading"
	"github.com/dgnsrekt/mordoo/internal/render"
)

var (
	listKind      string
	listFavorites bool
	listJSON      bool
	exportFormat  string
	exportOutput  string
	clearYes      bool
	showRaw       bool

	libraryCmd = &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Browse and manage saved readings",
		Long: paragraph(fmt.Sprintf("\nThe library keeps your %s newest readings. When it is full the oldest reading is dropped, %s.",
			keyword("50"), keyword("unless it is a favorite"))),
		Args: cobra.NoArgs,
		RunE: withApp(runLibraryList),
	}

	libraryListCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved readings, newest first",
		Args:    cobra.NoArgs,
		RunE:    withApp(runLibraryList),
	}

	libraryShowCmd = &cobra.Command{
		Use:   "show ID",
		Short: "Show a saved reading",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
			r, ok := a.library.Get(args[0])
			if !ok {
				return fmt.Errorf("no reading with id %q", args[0])
			}

			md := render.Markdown(r)
			if showRaw {
				_, err := fmt.Fprint(os.Stdout, md)
				return err
			}
			out, err := render.Render(md, int(width), style) //nolint:gosec
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(os.Stdout, out)
			return err
		}),
	}

	libraryAddCmd = &cobra.Command{
		Use:   "add KIND FILE",
		Short: "Save a reading from a JSON file of its fields (- for stdin)",
		Example: paragraph("mordoo library add horoscope leo.json\n" +
			`echo '{"topic":"career","prediction":"A door opens"}' | mordoo library add specialized -`),
		Args: cobra.ExactArgs(2),
		RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
			kind, err := reading.ParseKind(args[0])
			if err != nil {
				return err
			}
			fields, err := readInput(args[1])
			if err != nil {
				return err
			}

			r, err := library.NewBuilder().FromJSON(kind, fields)
			if err != nil {
				return err
			}
			warnUnavailable(a)

			outcome := a.library.Upsert(r)
			if outcome == library.Dropped {
				fmt.Println(warning("Library is full of favorites; reading not saved."))
				return nil
			}
			fmt.Printf("%s %s\n", keyword(outcome.String()), r.Header().ID)
			return nil
		}),
	}

	libraryRemoveCmd = &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a saved reading",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
			id := args[0]
			if !a.library.Remove(id) {
				fmt.Println(faint("Nothing to remove."))
				return nil
			}
			a.favorites.Remove(id)
			fmt.Println("Removed", id)
			return nil
		}),
	}

	libraryClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved reading, favorites included",
		Args:  cobra.NoArgs,
		RunE: withApp(func(a *app, _ *cobra.Command, _ []string) error {
			if !clearYes {
				return errors.New("refusing to clear the library without --yes")
			}
			a.library.Clear()
			a.favorites.Prune(func(string) bool { return false })
			fmt.Println("Library cleared.")
			return nil
		}),
	}

	libraryFavCmd = &cobra.Command{
		Use:     "fav ID",
		Aliases: []string{"favorite", "star"},
		Short:   "Toggle whether a reading is a favorite",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
			id := args[0]
			if _, ok := a.library.Get(id); !ok {
				return fmt.Errorf("no reading with id %q", id)
			}
			if a.favorites.Toggle(id) {
				fmt.Println(star, id, "is now a favorite")
			} else {
				fmt.Println(id, "is no longer a favorite")
			}
			return nil
		}),
	}

	librarySearchCmd = &cobra.Command{
		Use:   "search QUERY",
		Short: "Fuzzy-search saved readings",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
			return printEntries(os.Stdout, a.library.Search(strings.Join(args, " ")))
		}),
	}

	libraryExportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export the library as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: withApp(func(a *app, _ *cobra.Command, _ []string) error {
			data, err := exportEntries(a.library.Entries(), exportFormat)
			if err != nil {
				return err
			}
			if exportOutput == "" || exportOutput == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(exportOutput, data, 0o600); err != nil {
				return fmt.Errorf("unable to write export: %w", err)
			}
			fmt.Println("Exported to", exportOutput)
			return nil
		}),
	}

	libraryCopyCmd = &cobra.Command{
		Use:   "copy ID",
		Short: "Copy a reading to the clipboard as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
			r, ok := a.library.Get(args[0])
			if !ok {
				return fmt.Errorf("no reading with id %q", args[0])
			}
			if err := clipboard.WriteAll(render.Markdown(r)); err != nil {
				return fmt.Errorf("unable to copy to clipboard: %w", err)
			}
			fmt.Println("Copied", args[0])
			return nil
		}),
	}

	libraryWatchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print library changes made by other mordoo commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return watchLibrary(cmd)
		},
	}
)

func init() {
	for _, c := range []*cobra.Command{libraryCmd, libraryListCmd} {
		c.Flags().StringVarP(&listKind, "kind", "k", "", "only show readings of this kind")
		c.Flags().BoolVarP(&listFavorites, "favorites", "f", false, "only show favorites")
		c.Flags().BoolVar(&listJSON, "json", false, "print entries as JSON")
	}
	libraryShowCmd.Flags().BoolVarP(&showRaw, "raw", "r", false, "print Markdown without rendering")
	libraryClearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "confirm clearing the library")
	libraryExportCmd.Flags().StringVar(&exportFormat, "format", "json", "export format: json or yaml")
	libraryExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")

	libraryCmd.AddCommand(
		libraryListCmd,
		libraryShowCmd,
		libraryAddCmd,
		libraryRemoveCmd,
		libraryClearCmd,
		libraryFavCmd,
		librarySearchCmd,
		libraryExportCmd,
		libraryCopyCmd,
		libraryWatchCmd,
	)
}

func runLibraryList(a *app, _ *cobra.Command, _ []string) error {
	var entries []library.Entry
	switch {
	case listKind != "":
		kind, err := reading.ParseKind(listKind)
		if err != nil {
			return err
		}
		entries = a.library.Filter(kind)
	case listFavorites:
		entries = a.library.FavoriteEntries()
	default:
		entries = a.library.Entries()
	}

	if listKind != "" && listFavorites {
		kept := entries[:0]
		for _, e := range entries {
			if e.Favorite {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	if listJSON {
		data, err := exportEntries(entries, "json")
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if len(entries) == 0 {
		fmt.Println(faint("No saved readings."))
		return nil
	}
	if err := printEntries(os.Stdout, entries); err != nil {
		return err
	}
	fmt.Println(faint(fmt.Sprintf("\n%d of %d slots used", len(a.library.Load().Items), a.library.Capacity())))
	return nil
}

const (
	idColumn    = 14
	kindColumn  = 16
	whenColumn  = 15
	previewGaps = 6
)

// printEntries writes one line per entry, fitted to the terminal width.
func printEntries(w io.Writer, entries []library.Entry) error {
	previewWidth := int(width) - idColumn - kindColumn - whenColumn - previewGaps //nolint:gosec
	if previewWidth < 10 {
		previewWidth = 10
	}

	for _, e := range entries {
		mark := " "
		if e.Favorite {
			mark = star
		}

		id := truncate.StringWithTail(e.ID, idColumn, "…")
		preview := strings.Join(strings.Fields(e.Preview), " ")
		preview = truncate.StringWithTail(preview, uint(previewWidth), "…") //nolint:gosec

		_, err := fmt.Fprintf(w, "%s %s %s %s %s\n",
			mark,
			runewidth.FillRight(id, idColumn),
			label(runewidth.FillRight(e.Kind().Label(), kindColumn)),
			faint(runewidth.FillRight(humanize.Time(e.CreatedAt), whenColumn)),
			preview,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// exportEntries encodes entries. YAML is produced from the JSON form so
// both formats share field names.
func exportEntries(entries []library.Entry, format string) ([]byte, error) {
	if entries == nil {
		entries = []library.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("unable to encode entries: %w", err)
	}

	switch strings.ToLower(format) {
	case "json":
		return append(data, '\n'), nil
	case "yaml", "yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("unable to convert entries: %w", err)
		}
		return yaml.Marshal(doc)
	}
	return nil, fmt.Errorf("unknown export format %q: use json or yaml", format)
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("unable to read from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	return data, nil
}

func warnUnavailable(a *app) {
	if !a.available() {
		fmt.Fprintln(os.Stderr, warning("Storage is unavailable; changes will not be kept."))
	}
}

// watchLibrary reports library changes written by other processes. The
// store is opened only briefly after each change so writers can take the
// storage lock.
func watchLibrary(cmd *cobra.Command) error {
	if cfg.Storage.Backend == kv.BackendMemory {
		return errors.New("nothing to watch: the memory backend is not shared between processes")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	dir := cfg.Storage.Dir
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("unable to create data directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("unable to watch %s: %w", dir, err)
	}
	fmt.Println("Watching", faint(dir), "(ctrl+c to stop)")

	last := snapshot()
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) == ".lock" {
				continue
			}
			debounce.Reset(200 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", "error", err)
		case <-debounce.C:
			next := snapshot()
			if next == nil {
				continue
			}
			reportChanges(os.Stdout, last, next)
			last = next
		}
	}
}

// snapshot returns the library ids mapped to their favorite flag, or nil
// if the storage is busy.
func snapshot() map[string]bool {
	a, err := openApp(cfg)
	if err != nil {
		log.Debug("Storage busy, retrying on next change", "error", err)
		return nil
	}
	defer a.Close() //nolint:errcheck

	ids := map[string]bool{}
	for _, e := range a.library.Entries() {
		ids[e.ID] = e.Favorite
	}
	return ids
}

func reportChanges(w io.Writer, before, after map[string]bool) {
	now := time.Now().Format(time.Kitchen)
	for id, fav := range after {
		prev, existed := before[id]
		switch {
		case !existed:
			fmt.Fprintf(w, "%s %s %s\n", faint(now), keyword("+"), id)
		case fav && !prev:
			fmt.Fprintf(w, "%s %s %s\n", faint(now), star, id)
		case !fav && prev:
			fmt.Fprintf(w, "%s %s %s\n", faint(now), "☆", id)
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			fmt.Fprintf(w, "%s %s %s\n", faint(now), warning("-"), id)
		}
	}
}
