package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/signald/serverconf/internal/protocol"
	"golang.org/x/term"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// isTerminal reports whether stdout is attached to a terminal
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// resolveOutput validates the --output flag. An empty value picks a table
// for terminals and JSON for pipes.
func resolveOutput(flag string, tty bool) (string, error) {
	switch strings.ToLower(flag) {
	case "":
		if tty {
			return outputTable, nil
		}
		return outputJSON, nil
	case outputTable:
		return outputTable, nil
	case outputJSON:
		return outputJSON, nil
	default:
		return "", fmt.Errorf("invalid output format %q (supported: table, json)", flag)
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeServerTable(w io.Writer, servers []protocol.ServerConfig) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UUID\tSERVICE URL\tCDNS\tPROXY")
	for _, s := range servers {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.UUID, s.ServiceURL, len(s.CDNURLs), valueOrDash(s.Proxy))
	}
	return tw.Flush()
}

// writeServerDetail prints one server as aligned key/value rows. Binary
// fields are reported as set or unset rather than dumped.
func writeServerDetail(w io.Writer, s protocol.ServerConfig) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(key, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(tw, "%s:\t%s\n", key, value)
	}

	row("UUID", s.UUID.String())
	row("Service URL", s.ServiceURL)
	for _, cdn := range s.CDNURLs {
		row("CDN "+strconv.Itoa(cdn.Number), cdn.URL)
	}
	row("Contact discovery URL", s.ContactDiscoveryURL)
	row("Key backup URL", s.KeyBackupURL)
	row("Storage URL", s.StorageURL)
	row("Proxy", valueOrDash(s.Proxy))
	row("Key backup service", s.KeyBackupServiceName)
	row("Key backup mrenclave", s.KeyBackupMrenclave)
	row("CDS mrenclave", s.CdsMrenclave)
	row("ZK params", setOrUnset(s.ZkParams))
	row("Unidentified sender root", setOrUnset(s.UnidentifiedSenderRoot))
	row("CA", setOrUnset(s.CA))
	row("Key backup service ID", setOrUnset(s.KeyBackupServiceID))
	row("IAS CA", setOrUnset(s.IasCA))
	return tw.Flush()
}

func valueOrDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

func setOrUnset(v *string) string {
	if v == nil {
		return "unset"
	}
	return "set"
}
