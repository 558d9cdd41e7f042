// Package memory is an in-process storage backend. It is the default for
// simulations and tests; state does not survive the process.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lugondev/exchange-booth/internal/storage"
)

func init() {
	storage.RegisterMemoryFactory(func(context.Context) (storage.Repository, error) {
		return NewRepository(), nil
	})
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	mu         sync.RWMutex
	accounts   map[string]*storage.AccountModel
	executions map[string]*storage.ExecutionModel
	order      []string // execution ids in insertion order
	closed     bool

	accountRepo   *accountRepository
	executionRepo *executionRepository
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	r := &Repository{
		accounts:   make(map[string]*storage.AccountModel),
		executions: make(map[string]*storage.ExecutionModel),
	}
	r.accountRepo = &accountRepository{r: r}
	r.executionRepo = &executionRepository{r: r}
	return r
}

func (r *Repository) Accounts() storage.AccountRepository {
	return r.accountRepo
}

func (r *Repository) Executions() storage.ExecutionRepository {
	return r.executionRepo
}

// Apply validates the whole change set before writing any of it.
func (r *Repository) Apply(_ context.Context, cs *storage.ChangeSet) error {
	if cs == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("repository closed")
	}
	for _, m := range cs.Upserts {
		if m == nil || m.Pubkey == "" {
			return fmt.Errorf("invalid account model in change set")
		}
	}
	if cs.Execution != nil {
		if err := validateExecution(cs.Execution); err != nil {
			return err
		}
		if _, exists := r.executions[cs.Execution.ID]; exists {
			return fmt.Errorf("duplicate execution id %s", cs.Execution.ID)
		}
	}

	for _, m := range cs.Upserts {
		r.accounts[m.Pubkey] = copyAccount(m)
	}
	for _, key := range cs.Deletes {
		delete(r.accounts, key)
	}
	if cs.Execution != nil {
		r.putExecution(cs.Execution)
	}
	return nil
}

func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *Repository) Ping(_ context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return fmt.Errorf("repository closed")
	}
	return nil
}

func (r *Repository) putExecution(e *storage.ExecutionModel) {
	r.executions[e.ID] = copyExecution(e)
	r.order = append(r.order, e.ID)
}

type accountRepository struct {
	r *Repository
}

func (a *accountRepository) Save(_ context.Context, account *storage.AccountModel) error {
	if account == nil || account.Pubkey == "" {
		return fmt.Errorf("invalid account model")
	}
	a.r.mu.Lock()
	defer a.r.mu.Unlock()
	a.r.accounts[account.Pubkey] = copyAccount(account)
	return nil
}

func (a *accountRepository) SaveBatch(_ context.Context, accounts []*storage.AccountModel) error {
	a.r.mu.Lock()
	defer a.r.mu.Unlock()
	for _, m := range accounts {
		if m == nil || m.Pubkey == "" {
			return fmt.Errorf("invalid account model")
		}
	}
	for _, m := range accounts {
		a.r.accounts[m.Pubkey] = copyAccount(m)
	}
	return nil
}

func (a *accountRepository) FindByPubkey(_ context.Context, pubkey string) (*storage.AccountModel, error) {
	a.r.mu.RLock()
	defer a.r.mu.RUnlock()
	m, ok := a.r.accounts[pubkey]
	if !ok {
		return nil, nil
	}
	return copyAccount(m), nil
}

func (a *accountRepository) FindByOwner(_ context.Context, owner string, limit int, offset int) ([]*storage.AccountModel, error) {
	a.r.mu.RLock()
	var matched []*storage.AccountModel
	for _, m := range a.r.accounts {
		if m.Owner == owner {
			matched = append(matched, copyAccount(m))
		}
	}
	a.r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].Pubkey < matched[j].Pubkey })
	return page(matched, limit, offset), nil
}

func (a *accountRepository) List(_ context.Context) ([]*storage.AccountModel, error) {
	a.r.mu.RLock()
	result := make([]*storage.AccountModel, 0, len(a.r.accounts))
	for _, m := range a.r.accounts {
		result = append(result, copyAccount(m))
	}
	a.r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Pubkey < result[j].Pubkey })
	return result, nil
}

func (a *accountRepository) Delete(_ context.Context, pubkey string) error {
	a.r.mu.Lock()
	defer a.r.mu.Unlock()
	delete(a.r.accounts, pubkey)
	return nil
}

type executionRepository struct {
	r *Repository
}

func (e *executionRepository) Save(_ context.Context, exec *storage.ExecutionModel) error {
	if err := validateExecution(exec); err != nil {
		return err
	}
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	if _, exists := e.r.executions[exec.ID]; exists {
		return fmt.Errorf("duplicate execution id %s", exec.ID)
	}
	e.r.putExecution(exec)
	return nil
}

func (e *executionRepository) FindByID(_ context.Context, id string) (*storage.ExecutionModel, error) {
	e.r.mu.RLock()
	defer e.r.mu.RUnlock()
	m, ok := e.r.executions[id]
	if !ok {
		return nil, nil
	}
	return copyExecution(m), nil
}

func (e *executionRepository) FindBySignature(_ context.Context, signature string) (*storage.ExecutionModel, error) {
	e.r.mu.RLock()
	defer e.r.mu.RUnlock()
	for i := len(e.r.order) - 1; i >= 0; i-- {
		if m := e.r.executions[e.r.order[i]]; m.Signature == signature {
			return copyExecution(m), nil
		}
	}
	return nil, nil
}

// FindRecent returns up to limit receipts, newest first.
func (e *executionRepository) FindRecent(_ context.Context, limit int) ([]*storage.ExecutionModel, error) {
	e.r.mu.RLock()
	defer e.r.mu.RUnlock()
	var result []*storage.ExecutionModel
	for i := len(e.r.order) - 1; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, copyExecution(e.r.executions[e.r.order[i]]))
	}
	return result, nil
}

func validateExecution(exec *storage.ExecutionModel) error {
	if exec == nil || exec.ID == "" {
		return fmt.Errorf("invalid execution model")
	}
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func copyAccount(m *storage.AccountModel) *storage.AccountModel {
	cp := *m
	cp.Data = bytes.Clone(m.Data)
	return &cp
}

func copyExecution(m *storage.ExecutionModel) *storage.ExecutionModel {
	cp := *m
	cp.Accounts = append([]string(nil), m.Accounts...)
	cp.LogMessages = append([]string(nil), m.LogMessages...)
	if m.CustomCode != nil {
		code := *m.CustomCode
		cp.CustomCode = &code
	}
	return &cp
}
