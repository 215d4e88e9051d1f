package vsadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/sevigo/docsync/internal/core"
)

// Client is the subprocess-backed VS implementation, grounded on gitutil's
// Client shape (a logger plus context-first methods) but generalized from a
// go-git library call to an exec.CommandContext call, since the spec
// requires the VS to be reached only through its CLI (§4.1).
type Client struct {
	logger         *slog.Logger
	executablePath string
	effectivePath  string
	commandTimeout time.Duration
}

// NewClient returns a Client that runs executablePath with its working
// directory set to effectivePath (§4.8: the effective path may differ from
// the configured one once a nested clone has been detected).
func NewClient(logger *slog.Logger, executablePath, effectivePath string, commandTimeout time.Duration) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		logger:         logger,
		executablePath: executablePath,
		effectivePath:  effectivePath,
		commandTimeout: commandTimeout,
	}
}

// EffectivePath returns the directory the client currently runs commands in.
func (c *Client) EffectivePath() string {
	return c.effectivePath
}

// SetEffectivePath updates the working directory used for future commands,
// used once path alignment (§4.8) resolves a nested clone.
func (c *Client) SetEffectivePath(path string) {
	c.effectivePath = path
}

func (c *Client) run(ctx context.Context, args ...string) (Result, error) {
	timeout := c.commandTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.executablePath, args...)
	cmd.Dir = c.effectivePath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.DebugContext(ctx, "running vs command", "args", args, "dir", c.effectivePath)
	err := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
	}
	res.OK = err == nil

	if err != nil {
		return res, classifyErr(err, res.Stderr)
	}
	return res, nil
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.run(ctx, "init")
	return err
}

func (c *Client) Clone(ctx context.Context, remoteURL string) error {
	res, err := c.run(ctx, "clone", remoteURL, c.effectivePath)
	if err != nil {
		return err
	}
	if strings.Contains(strings.ToLower(res.Stdout), "empty") {
		return fmt.Errorf("%w: %s", core.ErrEmptyRepository, remoteURL)
	}
	return nil
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	res, err := c.run(ctx, "status", "--format=json")
	if err != nil {
		return Status{}, err
	}
	var parsed struct {
		Branch   string   `json:"branch"`
		Staged   []string `json:"staged"`
		Modified []string `json:"modified"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &parsed); err != nil {
		return Status{}, fmt.Errorf("vsadapter: parse status output: %w", err)
	}
	return Status{Branch: parsed.Branch, Staged: parsed.Staged, Modified: parsed.Modified}, nil
}

func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (c *Client) HeadCommit(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (c *Client) ListBranches(ctx context.Context) ([]Branch, error) {
	res, err := c.run(ctx, "branch", "--format=json")
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Name    string `json:"name"`
		Current bool   `json:"current"`
		Head    string `json:"head"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &rows); err != nil {
		return nil, fmt.Errorf("vsadapter: parse branch list: %w", err)
	}
	branches := make([]Branch, len(rows))
	for i, r := range rows {
		branches[i] = Branch{Name: r.Name, Current: r.Current, Head: r.Head}
	}
	return branches, nil
}

func (c *Client) CreateBranch(ctx context.Context, name string) error {
	_, err := c.run(ctx, "branch", name)
	return err
}

func (c *Client) Checkout(ctx context.Context, ref string, create bool) error {
	args := []string{"checkout"}
	if create {
		args = append(args, "-b")
	}
	args = append(args, ref)
	_, err := c.run(ctx, args...)
	return err
}

func (c *Client) AddAll(ctx context.Context) error {
	_, err := c.run(ctx, "add", "-A")
	return err
}

func (c *Client) Commit(ctx context.Context, message string) (string, error) {
	if _, err := c.run(ctx, "commit", "-m", message); err != nil {
		return "", err
	}
	return c.HeadCommit(ctx)
}

func (c *Client) Push(ctx context.Context, remote, branch string) error {
	_, err := c.run(ctx, "push", remote, branch)
	return err
}

func (c *Client) Pull(ctx context.Context, remote, branch string) (PullResult, error) {
	beforeHead, _ := c.HeadCommit(ctx)

	res, err := c.run(ctx, "pull", remote, branch)
	if err != nil {
		if errorsIsConflict(err) {
			return PullResult{Success: false, HadConflicts: true}, nil
		}
		return PullResult{}, err
	}

	afterHead, _ := c.HeadCommit(ctx)
	fastForward := strings.Contains(strings.ToLower(res.Stdout), "fast-forward") || (beforeHead != "" && afterHead != beforeHead)
	return PullResult{Success: true, FastForward: fastForward}, nil
}

func (c *Client) Fetch(ctx context.Context, remote string) error {
	_, err := c.run(ctx, "fetch", remote)
	return err
}

func (c *Client) Merge(ctx context.Context, src string) (MergeResult, error) {
	_, err := c.run(ctx, "merge", src)
	if err != nil {
		if errorsIsConflict(err) {
			return MergeResult{Success: false, HadConflicts: true}, nil
		}
		return MergeResult{}, err
	}
	head, _ := c.HeadCommit(ctx)
	return MergeResult{Success: true, MergeCommit: head}, nil
}

func (c *Client) Conflicts(ctx context.Context, table string) ([]ConflictRow, error) {
	res, err := c.run(ctx, "conflicts", "cat", table, "--format=json")
	if err != nil {
		return nil, err
	}
	var rows []struct {
		RowID string `json:"row_id"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &rows); err != nil {
		return nil, fmt.Errorf("vsadapter: parse conflicts: %w", err)
	}
	conflicts := make([]ConflictRow, len(rows))
	for i, r := range rows {
		conflicts[i] = ConflictRow{Table: table, RowID: r.RowID}
	}
	return conflicts, nil
}

func (c *Client) Resolve(ctx context.Context, table, rowID string, side ResolveSide) error {
	_, err := c.run(ctx, "conflicts", "resolve", "--"+string(side), table, rowID)
	return err
}

func (c *Client) ResetHard(ctx context.Context, ref string) error {
	_, err := c.run(ctx, "reset", "--hard", ref)
	return err
}

func (c *Client) Diff(ctx context.Context, from, to, table string) ([]DiffRow, error) {
	res, err := c.run(ctx, "diff", from, to, table, "--format=json")
	if err != nil {
		return nil, err
	}
	var rows []struct {
		DiffType  string `json:"diff_type"`
		ID        string `json:"id"`
		FromHash  string `json:"from_hash"`
		ToHash    string `json:"to_hash"`
		ToContent string `json:"to_content"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &rows); err != nil {
		return nil, fmt.Errorf("vsadapter: parse diff rows: %w", err)
	}
	diffRows := make([]DiffRow, len(rows))
	for i, r := range rows {
		diffRows[i] = DiffRow{
			Kind:      DiffKind(r.DiffType),
			ID:        r.ID,
			FromHash:  r.FromHash,
			ToHash:    r.ToHash,
			ToContent: r.ToContent,
		}
	}
	return diffRows, nil
}

func (c *Client) Log(ctx context.Context, ref string) ([]Commit, error) {
	res, err := c.run(ctx, "log", ref, "--format=json")
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Hash      string    `json:"hash"`
		Message   string    `json:"message"`
		Author    string    `json:"author"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &rows); err != nil {
		return nil, fmt.Errorf("vsadapter: parse log: %w", err)
	}
	commits := make([]Commit, len(rows))
	for i, r := range rows {
		commits[i] = Commit{Hash: r.Hash, Message: r.Message, Author: r.Author, Timestamp: r.Timestamp}
	}
	return commits, nil
}

func (c *Client) Exec(ctx context.Context, sqlStmt string) (int64, error) {
	res, err := c.run(ctx, "sql", "-q", sqlStmt)
	if err != nil {
		return 0, err
	}
	var affected struct {
		RowsAffected int64 `json:"rows_affected"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &affected); err != nil {
		// some subcommands don't report rows_affected; treat as success/0.
		return 0, nil
	}
	return affected.RowsAffected, nil
}

func (c *Client) QueryJSON(ctx context.Context, sqlStmt string) ([]map[string]any, error) {
	res, err := c.run(ctx, "sql", "-q", sqlStmt, "-r", "json")
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(res.Stdout), &rows); err != nil {
		return nil, fmt.Errorf("vsadapter: parse query rows: %w", err)
	}
	return rows, nil
}

func errorsIsConflict(err error) bool {
	return errors.Is(err, core.ErrConflicts)
}

var _ VS = (*Client)(nil)
