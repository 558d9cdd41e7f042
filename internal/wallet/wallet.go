// Package wallet manages the signing keys of booth participants.
package wallet

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Wallet is one ed25519 keypair.
type Wallet struct {
	privateKey solana.PrivateKey
}

// NewWallet generates a new random wallet
func NewWallet() *Wallet {
	account := solana.NewWallet()
	return &Wallet{
		privateKey: account.PrivateKey,
	}
}

// FromName derives a wallet from a name. The same name always yields the
// same key, which makes scenario files reproducible. Such keys are public
// knowledge and must never hold real value.
func FromName(name string) *Wallet {
	seed := sha256.Sum256([]byte(name))
	return &Wallet{
		privateKey: solana.PrivateKey(ed25519.NewKeyFromSeed(seed[:])),
	}
}

// FromPrivateKey wraps an existing private key
func FromPrivateKey(pk solana.PrivateKey) *Wallet {
	return &Wallet{
		privateKey: pk,
	}
}

// FromBase58 creates a wallet from a base58-encoded private key
func FromBase58(key string) (*Wallet, error) {
	pk, err := solana.PrivateKeyFromBase58(key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &Wallet{privateKey: pk}, nil
}

// FromFile loads a wallet from a JSON keypair file (Solana CLI format)
func FromFile(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair file: %w", err)
	}

	var keypair []byte
	if err := json.Unmarshal(data, &keypair); err != nil {
		return nil, fmt.Errorf("failed to parse keypair: %w", err)
	}

	if len(keypair) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid keypair size: expected %d, got %d", ed25519.PrivateKeySize, len(keypair))
	}

	pk := solana.PrivateKey(keypair)
	// The second half of a keypair must be the public key of the first.
	derived := ed25519.NewKeyFromSeed(keypair[:ed25519.SeedSize])
	if !pk.PublicKey().Equals(solana.PublicKeyFromBytes(derived[ed25519.SeedSize:])) {
		return nil, fmt.Errorf("keypair file %s holds a mismatched public key", path)
	}
	return &Wallet{privateKey: pk}, nil
}

// PublicKey returns the wallet's public key
func (w *Wallet) PublicKey() solana.PublicKey {
	return w.privateKey.PublicKey()
}

// PrivateKey returns the wallet's private key
func (w *Wallet) PrivateKey() solana.PrivateKey {
	return w.privateKey
}

// SaveToFile saves the keypair to a JSON file (Solana CLI format)
func (w *Wallet) SaveToFile(path string) error {
	// Marshal as numbers, not base64.
	keypair := make([]int, len(w.privateKey))
	for i, b := range w.privateKey {
		keypair[i] = int(b)
	}
	data, err := json.Marshal(keypair)
	if err != nil {
		return fmt.Errorf("failed to marshal keypair: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write keypair file: %w", err)
	}

	return nil
}

// String returns the public key as a string
func (w *Wallet) String() string {
	return w.PublicKey().String()
}

// Keyring maps participant names to wallets.
type Keyring struct {
	mu      sync.RWMutex
	wallets map[string]*Wallet
}

// NewKeyring creates an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{wallets: make(map[string]*Wallet)}
}

// Get returns the wallet registered under name, deriving it on first use.
func (k *Keyring) Get(name string) *Wallet {
	k.mu.RLock()
	w, ok := k.wallets[name]
	k.mu.RUnlock()
	if ok {
		return w
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if w, ok := k.wallets[name]; ok {
		return w
	}
	w = FromName(name)
	k.wallets[name] = w
	return w
}

// Add registers w under name, replacing any earlier wallet.
func (k *Keyring) Add(name string, w *Wallet) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.wallets[name] = w
}

// Names returns the registered names in sorted order.
func (k *Keyring) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	names := make([]string, 0, len(k.wallets))
	for name := range k.wallets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
