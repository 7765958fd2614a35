package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/MKhiriev/go-herd-keeper/models"
)

var (
	successText = color.New(color.FgGreen).SprintFunc()
	errorText   = color.New(color.FgRed).SprintFunc()
	warnText    = color.New(color.FgYellow).SprintFunc()
	headerText  = color.New(color.FgCyan, color.Bold).SprintFunc()
	dimText     = color.New(color.Faint).SprintFunc()
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return dimText("never")
	}
	return t.Local().Format(time.DateTime)
}

func stateText(state string, halted bool) string {
	switch {
	case halted:
		return errorText(state + " (halted)")
	case state == "PAUSED":
		return warnText(state)
	default:
		return successText(state)
	}
}

func printStats(w io.Writer, s models.SyncStats) {
	fmt.Fprintln(w, headerText("Sync"))
	fmt.Fprintf(w, "  state:          %s\n", stateText(s.State, s.Halted))
	fmt.Fprintf(w, "  strategy:       %s\n", s.Strategy)
	fmt.Fprintf(w, "  last started:   %s\n", formatTime(s.LastSyncStarted))
	fmt.Fprintf(w, "  last completed: %s\n", formatTime(s.LastSyncCompleted))
	fmt.Fprintf(w, "  successful:     %d\n", s.SuccessfulSyncs)
	fmt.Fprintf(w, "  failed:         %d\n", s.FailedSyncs)
	fmt.Fprintf(w, "  dead letters:   %d\n", s.DeadLetters)
	if s.LastError != "" {
		fmt.Fprintf(w, "  last error:     %s\n", errorText(s.LastError))
	}
}

func printTransfer(w io.Writer, t models.Transfer) {
	status := string(t.Status)
	switch t.Status {
	case models.TransferVerified:
		status = successText(status)
	case models.TransferRejected:
		status = errorText(status)
	default:
		status = warnText(status)
	}

	fmt.Fprintf(w, "%s %s\n", headerText("Transfer"), t.ID)
	fmt.Fprintf(w, "  asset:   %s\n", t.AssetID)
	fmt.Fprintf(w, "  from:    %s\n", t.FromOwnerID)
	fmt.Fprintf(w, "  to:      %s\n", t.ToOwnerID)
	fmt.Fprintf(w, "  status:  %s\n", status)
	fmt.Fprintf(w, "  version: %d\n", t.Version)
	if t.RejectionReason != "" {
		fmt.Fprintf(w, "  reason:  %s\n", t.RejectionReason)
	}
}
