package stubllm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
)

// Client is a deterministic, no-network chat client for tests and offline
// runs. The answer depends only on the prompts.
type Client struct {
	mu    sync.Mutex
	calls []Call
	err   error
}

// Call records one Complete invocation
type Call struct {
	System string
	User   string
}

func NewClient() *Client { return &Client{} }

// NewFailing returns a client whose every call fails with err
func NewFailing(err error) *Client { return &Client{err: err} }

func (c *Client) SourceName() string { return "Stub" }

func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.calls = append(c.calls, Call{System: system, User: user})
	c.mu.Unlock()

	if c.err != nil {
		return "", c.err
	}

	sum := sha256.Sum256([]byte(system + "\x00" + user))
	short := hex.EncodeToString(sum[:4])
	fields := strings.Count(user, "\n")

	return fmt.Sprintf("- Stub insight %s based on %d intake fields.\n- Review the intake with the patient.\n- Reassess after the next consultation.", short, fields), nil
}

// Calls returns a copy of the recorded invocations
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}
