package orm

import (
	"context"

	"github.com/google/uuid"
)

// MutationInfo describes the mutation a BeforeEntityMutation/
// AfterEntityMutation hook is being dispatched for. QueryID is a fresh
// opaque token minted once per top-level mutation and shared by the paired
// before/after calls, so a hook can correlate them.
type MutationInfo struct {
	Model   string
	Action  string // "create", "update", "upsert", or "delete"
	QueryID string
	Where   any
}

// LoadMutationEntities lazily selects the rows a mutation is about to
// affect, run before the mutating statement so a BeforeEntityMutation hook
// can inspect the pre-mutation state.
type LoadMutationEntities func(ctx context.Context) ([]map[string]any, error)

// MutationHook runs around every create/update/upsert/delete a Client
// issues. BeforeEntityMutation is dispatched once the affected rows are
// known but before the mutating statement executes; AfterEntityMutation
// sees the rows the mutation produced (or, for delete, the rows it
// removed). RunAfterMutationWithinTransaction selects whether
// AfterEntityMutation runs inside the mutation's transaction, before
// commit, or is deferred until after commit.
type MutationHook struct {
	Name                              string
	BeforeEntityMutation              func(ctx context.Context, info MutationInfo, load LoadMutationEntities) error
	AfterEntityMutation               func(ctx context.Context, info MutationInfo, affected []map[string]any) error
	RunAfterMutationWithinTransaction bool
}

// OnEntityMutation registers a mutation hook, run for every
// create/update/upsert/delete the client issues directly (nested relation
// writes performed on the caller's behalf do not re-dispatch it).
func (c *Client) OnEntityMutation(h MutationHook) {
	c.mutationHooks = append(c.mutationHooks, h)
}

type mutationHookCtxKey struct{}

// withMutationHooks attaches hooks to ctx so executeOperation, several
// calls deep from Model.Query, can find them without threading a *Client
// through every mutation helper.
func withMutationHooks(ctx context.Context, hooks []MutationHook) context.Context {
	if len(hooks) == 0 {
		return ctx
	}
	return context.WithValue(ctx, mutationHookCtxKey{}, hooks)
}

func mutationHooksFromContext(ctx context.Context) []MutationHook {
	hooks, _ := ctx.Value(mutationHookCtxKey{}).([]MutationHook)
	return hooks
}

func newQueryID() string {
	return uuid.NewString()
}

// dispatchBeforeEntityMutation runs every registered hook's
// BeforeEntityMutation in registration order.
func dispatchBeforeEntityMutation(ctx context.Context, hooks []MutationHook, info MutationInfo, load LoadMutationEntities) error {
	for _, h := range hooks {
		if h.BeforeEntityMutation == nil {
			continue
		}
		if err := h.BeforeEntityMutation(ctx, info, load); err != nil {
			return err
		}
	}
	return nil
}

// dispatchAfterEntityMutationInTx runs every hook flagged
// RunAfterMutationWithinTransaction and returns the rest so the caller can
// run them once its transaction has committed.
func dispatchAfterEntityMutationInTx(ctx context.Context, hooks []MutationHook, info MutationInfo, affected []map[string]any) ([]MutationHook, error) {
	var deferred []MutationHook
	for _, h := range hooks {
		if h.AfterEntityMutation == nil {
			continue
		}
		if !h.RunAfterMutationWithinTransaction {
			deferred = append(deferred, h)
			continue
		}
		if err := h.AfterEntityMutation(ctx, info, affected); err != nil {
			return nil, err
		}
	}
	return deferred, nil
}

// dispatchAfterEntityMutationPostCommit runs hooks
// dispatchAfterEntityMutationInTx deferred. The mutation has already
// committed by this point and is not rolled back if a hook errors here,
// per spec.md's propagation policy for post-commit hooks.
func dispatchAfterEntityMutationPostCommit(ctx context.Context, hooks []MutationHook, info MutationInfo, affected []map[string]any) error {
	for _, h := range hooks {
		if err := h.AfterEntityMutation(ctx, info, affected); err != nil {
			return err
		}
	}
	return nil
}
