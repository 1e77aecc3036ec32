// Command replica_compare checks that two API instances sharing a database
// report the same roster and statistics, which is what roster change
// notifications over Redis are meant to guarantee.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

var defaultPaths = []string{"/students", "/students/table", "/statistics", "/database"}

type result struct {
	Path      string
	StatusA   int
	StatusB   int
	BodyMatch bool
	Err       error
	DurationA time.Duration
	DurationB time.Duration
}

func main() {
	var (
		baseA   string
		baseB   string
		prefix  string
		token   string
		paths   string
		timeout time.Duration
	)

	flag.StringVar(&baseA, "a", "http://localhost:8080", "first instance base URL")
	flag.StringVar(&baseB, "b", "http://localhost:8081", "second instance base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API prefix")
	flag.StringVar(&token, "token", os.Getenv("CHAPTER_API_TOKEN"), "bearer token when auth is enabled")
	flag.StringVar(&paths, "paths", strings.Join(defaultPaths, ","), "comma separated GET paths to compare")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	var diverged int
	for _, path := range strings.Split(paths, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		res := compare(client, baseA, baseB, prefix+path, token)
		report(res)
		if res.Err != nil || res.StatusA != res.StatusB || !res.BodyMatch {
			diverged++
		}
	}

	fmt.Printf("Diverged endpoints: %d\n", diverged)
	if diverged > 0 {
		os.Exit(1)
	}
}

func compare(client *http.Client, baseA, baseB, path, token string) result {
	res := result{Path: path}
	bodyA, statusA, durA, errA := fetch(client, baseA, path, token)
	bodyB, statusB, durB, errB := fetch(client, baseB, path, token)
	res.StatusA, res.StatusB = statusA, statusB
	res.DurationA, res.DurationB = durA, durB
	if err := errors.Join(errA, errB); err != nil {
		res.Err = err
		return res
	}
	res.BodyMatch = sameData(bodyA, bodyB)
	return res
}

func fetch(client *http.Client, base, path, token string) ([]byte, int, time.Duration, error) {
	url := strings.TrimRight(base, "/") + path
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, time.Since(start), fmt.Errorf("read %s: %w", url, err)
	}
	return body, resp.StatusCode, time.Since(start), nil
}

// sameData compares the "data" member of two response envelopes, ignoring
// per-instance metadata.
func sameData(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}
	var ea, eb struct {
		Data interface{} `json:"data"`
	}
	if json.Unmarshal(a, &ea) != nil || json.Unmarshal(b, &eb) != nil {
		return false
	}
	return reflect.DeepEqual(ea.Data, eb.Data)
}

func report(res result) {
	state := "SAME"
	switch {
	case res.Err != nil:
		state = "ERROR"
	case res.StatusA != res.StatusB || !res.BodyMatch:
		state = "DIFF"
	}
	fmt.Printf("[%s] GET %s\n", state, res.Path)
	fmt.Printf("  a: %d (%s)  b: %d (%s)\n", res.StatusA, res.DurationA, res.StatusB, res.DurationB)
	if res.Err != nil {
		fmt.Printf("  error: %v\n", res.Err)
	}
}
