package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/vxverify/vxverify/internal/vx"
	"golang.org/x/term"
)

const rule = "  ────────────────────────────────────────"

// printer renders human-readable reports. Colors are used only when the
// writer is a terminal and --no-color is not set.
type printer struct {
	w     io.Writer
	color bool

	badge lipgloss.Style
	box   lipgloss.Style
	good  *color.Color
	bad   *color.Color
	warn  *color.Color
	dim   *color.Color
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w, color: !noColor && isTerminal(w)}

	r := lipgloss.NewRenderer(w)
	p.badge = r.NewStyle().Bold(true).Padding(0, 1)
	p.box = r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	p.good = color.New(color.FgGreen, color.Bold)
	p.bad = color.New(color.FgRed, color.Bold)
	p.warn = color.New(color.FgYellow)
	p.dim = color.New(color.Faint)
	for _, c := range []*color.Color{p.good, p.bad, p.warn, p.dim} {
		if p.color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) yesNo(ok bool, yes, no string) string {
	if ok {
		return p.good.Sprint(yes)
	}
	return p.bad.Sprint(no)
}

func (p *printer) statusBadge(s vx.Status) string {
	style := p.badge
	if p.color {
		bg := "#C62828"
		switch s {
		case vx.StatusVerified:
			bg = "#2E7D32"
		case vx.StatusMessageMismatch:
			bg = "#EF6C00"
		}
		style = style.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color(bg))
	}
	label := map[vx.Status]string{
		vx.StatusVerified:         "VERIFIED",
		vx.StatusMessageMismatch:  "MESSAGE MISMATCH",
		vx.StatusInvalidSignature: "INVALID SIGNATURE",
		vx.StatusFailed:           "FAILED",
	}[s]
	return style.Render(label)
}

// roundReport is the JSON shape of a single-round verification.
type roundReport struct {
	Round          int64  `json:"round"`
	RoundHash      string `json:"round_hash"`
	ClientSeed     string `json:"client_seed,omitempty"`
	Status         string `json:"status"`
	Verified       bool   `json:"verified"`
	MessageMatches bool   `json:"message_matches"`
	SignatureValid bool   `json:"signature_valid"`
	Message        string `json:"message,omitempty"`
	FetchedMessage string `json:"fetched_message,omitempty"`
	Signature      string `json:"signature,omitempty"`
	Error          string `json:"error,omitempty"`
	ErrorKind      string `json:"error_kind,omitempty"`
}

func newRoundReport(index int64, hash, seed string, res *vx.Result, err error) roundReport {
	rep := roundReport{Round: index, RoundHash: hash, ClientSeed: seed}
	if err != nil {
		rep.Status = "error"
		rep.Error = err.Error()
		rep.ErrorKind = vx.KindOf(err).String()
		return rep
	}
	rep.RoundHash = res.RoundHash
	rep.Status = string(res.Status())
	rep.Verified = res.Verified()
	rep.MessageMatches = res.MessageMatches
	rep.SignatureValid = res.SignatureValid
	rep.Message = res.Message
	rep.FetchedMessage = res.FetchedMessage
	rep.Signature = res.SignatureHex()
	return rep
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) roundResult(res *vx.Result, seed string) {
	p.printf("\n")
	p.printf("  vxverify round %d\n", res.Round)
	p.printf("%s\n", rule)
	p.printf("  Round hash:      %s\n", res.RoundHash)
	if seed != "" {
		p.printf("  Client seed:     %s %s\n", seed, p.dim.Sprint("(not part of the signed message)"))
	}
	p.printf("  Message:         %s\n", res.Message)
	if res.MessageMatches {
		p.printf("  Oracle message:  %s\n", p.dim.Sprint("same"))
	} else {
		p.printf("  Oracle message:  %s\n", p.warn.Sprint(res.FetchedMessage))
	}
	p.printf("  Signature:       %s\n", res.SignatureHex())
	p.printf("  Message match:   %s\n", p.yesNo(res.MessageMatches, "yes", "no"))
	p.printf("  BLS signature:   %s\n", p.yesNo(res.SignatureValid, "valid", "invalid"))
	p.printf("%s\n", rule)
	p.printf("  %s\n\n", p.statusBadge(res.Status()))
}
