package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"deepcheck/internal/domain"
	"deepcheck/internal/usecase/verify"
)

// Verifier defines the orchestrator surface the CLI drives.
type Verifier interface {
	SubmitClaim(ctx context.Context, text, sourceURL, sourceTitle string) (domain.ClaimAnalysis, error)
	StartClaimAnalysis(ctx context.Context, id string) (domain.ClaimAnalysis, error)
	SubmitMedia(ctx context.Context, fileName, filePath string, kind domain.MediaKind, sizeBytes int64) (domain.MediaAnalysis, error)
	StartMediaAnalysis(ctx context.Context, id string) (domain.MediaAnalysis, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Verifier    Verifier
	MediaStore  verify.MediaStore
	ClaimStore  verify.ClaimStore
	Serve       func(addr string) error
	Args        Arguments
	DefaultAddr string
	Version     string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "dev"
	}

	root := &cobra.Command{
		Use:   "deepcheck",
		Short: "Dual-source media and claim verification CLI",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Fprintln(outWriter, versionString)
			return nil
		}
		return cmd.Help()
	}

	root.AddCommand(verifyClaimCommand(deps, outWriter))
	root.AddCommand(verifyMediaCommand(deps, outWriter))
	root.AddCommand(startCommand(deps, outWriter))
	root.AddCommand(listCommand(deps, outWriter))
	root.AddCommand(showCommand(deps, outWriter))
	root.AddCommand(serveCommand(deps, outWriter))

	return root
}

func verifyClaimCommand(deps Dependencies, out io.Writer) *cobra.Command {
	var sourceURL, sourceTitle string
	cmd := &cobra.Command{
		Use:   "verify-claim <text>",
		Short: "Submit a textual claim and verify it immediately",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			submitted, err := deps.Verifier.SubmitClaim(cmd.Context(), text, sourceURL, sourceTitle)
			if err != nil {
				return err
			}
			analysis, err := deps.Verifier.StartClaimAnalysis(cmd.Context(), submitted.ID)
			if err != nil {
				return err
			}
			renderClaim(out, analysis)
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceURL, "source-url", "", "URL the claim was taken from")
	cmd.Flags().StringVar(&sourceTitle, "source-title", "", "Title of the claim's source")
	return cmd
}

func verifyMediaCommand(deps Dependencies, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-media <path>",
		Short: "Submit a local image or video and verify it immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}

			kind, err := kindFromExtension(path)
			if err != nil {
				return err
			}

			submitted, err := deps.Verifier.SubmitMedia(cmd.Context(), filepath.Base(path), path, kind, info.Size())
			if err != nil {
				return err
			}
			analysis, err := deps.Verifier.StartMediaAnalysis(cmd.Context(), submitted.ID)
			if err != nil {
				return err
			}
			renderMedia(out, analysis)
			return nil
		},
	}
}

func startCommand(deps Dependencies, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start analysis of a pending record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if _, err := deps.ClaimStore.GetClaimAnalysis(cmd.Context(), id); err == nil {
				analysis, startErr := deps.Verifier.StartClaimAnalysis(cmd.Context(), id)
				if startErr != nil {
					return startErr
				}
				renderClaim(out, analysis)
				return nil
			}
			analysis, err := deps.Verifier.StartMediaAnalysis(cmd.Context(), id)
			if err != nil {
				return err
			}
			renderMedia(out, analysis)
			return nil
		},
	}
}

func listCommand(deps Dependencies, out io.Writer) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submitted claims and media",
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := deps.ClaimStore.ListClaimAnalyses(cmd.Context(), limit)
			if err != nil {
				return err
			}
			media, err := deps.MediaStore.ListMediaAnalyses(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if len(claims) > 0 {
				t := newTable(out)
				t.AppendHeader(table.Row{"ID", "Status", "Verdict", "Credibility", "Claim"})
				for _, c := range claims {
					t.AppendRow(table.Row{c.ID, c.Status, resultVerdict(c.Result), fmt.Sprintf("%.2f", c.CredibilityScore), truncate(c.Text, 60)})
				}
				t.Render()
			}
			if len(media) > 0 {
				t := newTable(out)
				t.AppendHeader(table.Row{"ID", "Status", "Verdict", "Kind", "File"})
				for _, m := range media {
					t.AppendRow(table.Row{m.ID, m.Status, resultVerdict(m.Result), m.Kind, m.FileName})
				}
				t.Render()
			}
			if len(claims) == 0 && len(media) == 0 {
				fmt.Fprintln(out, "nothing submitted yet")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records per table")
	return cmd
}

func showCommand(deps Dependencies, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a full analysis record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if claim, err := deps.ClaimStore.GetClaimAnalysis(cmd.Context(), id); err == nil {
				return renderJSON(out, claim)
			}
			media, err := deps.MediaStore.GetMediaAnalysis(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("no claim or media record with id %s", id)
			}
			return renderJSON(out, media)
		},
	}
}

func serveCommand(deps Dependencies, out io.Writer) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Serve == nil {
				return fmt.Errorf("server is not configured")
			}
			fmt.Fprintf(out, "listening on %s\n", addr)
			return deps.Serve(addr)
		},
	}
	defaultAddr := deps.DefaultAddr
	if defaultAddr == "" {
		defaultAddr = ":8080"
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "Listen address")
	return cmd
}

func kindFromExtension(path string) (domain.MediaKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return domain.MediaImage, nil
	case ".mp4", ".mov", ".avi", ".webm", ".mkv":
		return domain.MediaVideo, nil
	default:
		return "", fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

func renderClaim(out io.Writer, analysis domain.ClaimAnalysis) {
	fmt.Fprintf(out, "claim %s: %s\n", analysis.ID, analysis.Status)
	if analysis.Status == domain.StatusFailed {
		fmt.Fprintf(out, "  reason: %s\n", analysis.FailureReason)
		return
	}
	if analysis.Result != nil {
		renderResult(out, *analysis.Result)
		fmt.Fprintf(out, "  credibility: %.2f\n", analysis.CredibilityScore)
	}
}

func renderMedia(out io.Writer, analysis domain.MediaAnalysis) {
	fmt.Fprintf(out, "media %s (%s): %s\n", analysis.ID, analysis.FileName, analysis.Status)
	if analysis.Status == domain.StatusFailed {
		fmt.Fprintf(out, "  reason: %s\n", analysis.FailureReason)
		return
	}
	if analysis.Result != nil {
		renderResult(out, *analysis.Result)
	}
}

func renderResult(out io.Writer, result domain.ConsensusResult) {
	agreement := "disagree"
	if result.Agreement {
		agreement = "agree"
	}
	fmt.Fprintf(out, "  verdict: %s (confidence %.2f, sources %s)\n", result.FinalVerdict, result.FinalConfidence, agreement)
	if result.Explanation != "" {
		fmt.Fprintf(out, "  explanation: %s\n", result.Explanation)
	}
	for _, finding := range result.MergedFindings {
		fmt.Fprintf(out, "  - [%s] %s: %s\n", finding.Severity, finding.Kind, finding.Description)
	}
}

func renderJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	if stdoutIsTerminal() {
		t.SetStyle(table.StyleLight)
	} else {
		t.SetStyle(table.StyleDefault)
	}
	return t
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func resultVerdict(result *domain.ConsensusResult) string {
	if result == nil {
		return "-"
	}
	return string(result.FinalVerdict)
}

// truncate shortens s to max characters. Counting runes rather than bytes
// keeps the cut from splitting a multibyte character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
