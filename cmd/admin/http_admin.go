package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	zones := fs.Bool("zones", false, "include zone voxels")
	_ = fs.Parse(args)

	path := "/admin/v1/state"
	if *zones {
		path += "?zones=1"
	}
	os.Exit(call(http.MethodGet, endpoint(*baseURL, path), nil, 5*time.Second))
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	os.Exit(call(http.MethodPost, endpoint(*baseURL, "/admin/v1/snapshot"), nil, 15*time.Second))
}

// commandCmd posts one command envelope, read from -json or stdin.
func commandCmd(args []string) {
	fs := flag.NewFlagSet("command", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	raw := fs.String("json", "", `command envelope, e.g. {"type":"disable","domain":"station","origin":[0,1,0],"disabled":true} (default: stdin)`)
	_ = fs.Parse(args)

	body := []byte(strings.TrimSpace(*raw))
	if len(body) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read stdin:", err)
			os.Exit(1)
		}
		body = bytes.TrimSpace(b)
	}
	if len(body) == 0 {
		fmt.Fprintln(os.Stderr, "missing command envelope")
		os.Exit(2)
	}
	os.Exit(call(http.MethodPost, endpoint(*baseURL, "/admin/v1/commands"), body, 10*time.Second))
}

func cyclesCmd(args []string) {
	fs := flag.NewFlagSet("cycles", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	domain := fs.String("domain", "", "domain filter")
	origin := fs.String("origin", "", "emitter origin filter: x,y,z")
	outcome := fs.String("outcome", "", "outcome filter: committed|rolled_back|empty")
	since := fs.Uint64("since", 0, "first tick (inclusive)")
	limit := fs.Int("limit", 100, "result limit")
	_ = fs.Parse(args)

	q := url.Values{}
	if *domain != "" {
		q.Set("domain", *domain)
	}
	if *origin != "" {
		q.Set("origin", *origin)
	}
	if *outcome != "" {
		q.Set("outcome", *outcome)
	}
	if *since > 0 {
		q.Set("since", fmt.Sprint(*since))
	}
	q.Set("limit", fmt.Sprint(*limit))
	os.Exit(call(http.MethodGet, endpoint(*baseURL, "/admin/v1/cycles?"+q.Encode()), nil, 10*time.Second))
}

func endpoint(base, path string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + path
}

// call prints the response body and returns the process exit code.
func call(method, u string, body []byte, timeout time.Duration) int {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, u, rd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		return 2
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cl := &http.Client{Timeout: timeout}
	resp, err := cl.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		return 1
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		return 1
	}
	return 0
}
