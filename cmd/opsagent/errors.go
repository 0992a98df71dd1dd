package main

import (
	"context"
	"errors"

	"github.com/opsctl/agentcore/internal/agent"
)

// Exit codes. 0 and 1 follow cobra/Go convention (success, usage/generic
// error); 2-4 distinguish the operations-specific failure modes a caller
// scripting against opsagent needs to tell apart; 130 matches the
// conventional SIGINT exit code for a cancelled run.
const (
	exitSuccess         = 0
	exitUserError       = 1
	exitPolicyDenied    = 2
	exitToolFailure     = 3
	exitIterationCapped = 4
	exitCancelled       = 130
)

// sentinel errors commands return to signal a specific exit code back
// through exitCodeFor without main needing to know command internals.
var (
	errPolicyDenied    = errors.New("opsagent: policy denied the request")
	errToolFailure     = errors.New("opsagent: a tool execution failed")
	errIterationCapped = errors.New("opsagent: iteration cap reached before completion")
)

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, context.Canceled):
		return exitCancelled
	case errors.Is(err, errPolicyDenied):
		return exitPolicyDenied
	case errors.Is(err, errToolFailure):
		return exitToolFailure
	case errors.Is(err, errIterationCapped):
		return exitIterationCapped
	case errors.Is(err, agent.ErrProvider):
		return exitToolFailure
	default:
		return exitUserError
	}
}
