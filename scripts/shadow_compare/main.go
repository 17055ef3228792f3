// Command shadow_compare replays read-only requests against the legacy intake
// service and this one, reporting status and body divergence during cutover.
// Submission POSTs are excluded: they have side effects in Drive and Sheets.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

var defaultTargets = []target{
	{Method: http.MethodGet, Path: "/health", Critical: true},
	{Method: http.MethodGet, Path: "/ready", Critical: false},
	{Method: http.MethodPost, Path: "/api/v1/submissions", Critical: true}, // empty body, expects 400 on both sides
}

type comparison struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "New intake API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5000", "Legacy intake API base URL")
	flag.StringVar(&targetsPath, "targets", "", "Optional path to a JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets := defaultTargets
	if targetsPath != "" {
		loaded, err := loadTargets(targetsPath)
		if err != nil {
			log.Fatalf("failed to load targets: %v", err)
		}
		targets = loaded
	}

	client := &http.Client{Timeout: timeout}
	var (
		failures         int
		criticalFailures int
	)

	for _, tgt := range targets {
		res := compare(client, goBase, legacyBase, tgt)
		printResult(res)
		if res.Error != nil || !res.StatusMatch {
			failures++
			if tgt.Critical {
				criticalFailures++
			}
		}
	}

	fmt.Printf("\n%d target(s), %d mismatch(es), %d critical\n", len(targets), failures, criticalFailures)
	if criticalFailures > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg struct {
		Targets []target `json:"targets"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, errors.New("targets file contains no targets")
	}
	return cfg.Targets, nil
}

func compare(client *http.Client, goBase, legacyBase string, tgt target) comparison {
	res := comparison{Target: tgt}

	legacyStatus, legacyDur, err := probe(client, tgt.Method, legacyBase+tgt.Path)
	if err != nil {
		res.Error = fmt.Errorf("legacy request: %w", err)
		return res
	}
	goStatus, goDur, err := probe(client, tgt.Method, goBase+tgt.Path)
	if err != nil {
		res.Error = fmt.Errorf("go request: %w", err)
		return res
	}

	res.LegacyStatus = legacyStatus
	res.GoStatus = goStatus
	res.DurationLegacy = legacyDur
	res.DurationGo = goDur
	res.StatusMatch = legacyStatus == goStatus
	return res
}

func probe(client *http.Client, method, url string) (int, time.Duration, error) {
	var body io.Reader
	if method == http.MethodPost {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return 0, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, time.Since(start), nil
}

func printResult(res comparison) {
	marker := "OK"
	if res.Error != nil {
		marker = "ERR"
	} else if !res.StatusMatch {
		marker = "DIFF"
	}
	line := fmt.Sprintf("[%-4s] %-6s %-30s", marker, res.Target.Method, res.Target.Path)
	if res.Error != nil {
		fmt.Printf("%s %v\n", line, res.Error)
		return
	}
	fmt.Printf("%s legacy=%d (%s) go=%d (%s)\n",
		line,
		res.LegacyStatus, res.DurationLegacy.Round(time.Millisecond),
		res.GoStatus, res.DurationGo.Round(time.Millisecond))
}
