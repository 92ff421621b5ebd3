package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"zonecraft.ai/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "command":
			commandCmd(os.Args[2:])
			return
		case "cycles":
			cyclesCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints the snapshots in the data dir, oldest first.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	paths, err := filepath.Glob(filepath.Join(*dataDir, "snapshots", "*.snap.zst"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "glob:", err)
		os.Exit(1)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TICK\tVERSION\tDIGEST\tFILE")
	for _, p := range paths {
		h, err := snapshot.ReadHeader(p)
		if err != nil {
			fmt.Fprintf(tw, "?\t?\t%v\t%s\n", err, filepath.Base(p))
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", h.Tick, h.Version, shortDigest(h.Digest), filepath.Base(p))
	}
	_ = tw.Flush()
}

// inspectCmd prints the domains and emitters stored in one snapshot.
func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		latest, err := snapshot.Latest(filepath.Join(*dataDir, "snapshots"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "scan snapshots:", err)
			os.Exit(1)
		}
		path = latest
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run server until it writes one")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	fmt.Printf("snapshot=%s tick=%d tick_rate_hz=%d digest=%s\n", filepath.Base(path), snap.Header.Tick, snap.TickRate, snap.Header.Digest)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tMIN_Y\tMAX_Y\tGRAVITY")
	for _, d := range snap.Domains {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%g\n", d.ID, d.MinY, d.MaxY, d.NaturalGravity)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DOMAIN\tORIGIN\tKIND\tACTIVE\tDISABLED\tRADIUS\tZONE\tENERGY\tGAS")
	for _, e := range snap.Emitters {
		fmt.Fprintf(tw, "%s\t%d,%d,%d\t%s\t%t\t%t\t%d\t%d\t%d\t%d\n",
			e.Domain, e.Origin[0], e.Origin[1], e.Origin[2], e.Kind, e.Active, e.ManualDisable,
			e.Radius, len(e.Zone), e.EnergyStored, e.GasStored)
	}
	_ = tw.Flush()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
