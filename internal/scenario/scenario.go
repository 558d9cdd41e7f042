// Package scenario runs booth lifecycles described in YAML against a runtime.
//
// A scenario names its mints, wallets and token accounts; keys are derived
// from those names so a file always replays onto the same addresses. Steps
// are the five booth instructions, each optionally expecting a failure code
// and a set of token balances afterwards.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Actions understood by the runner.
const (
	ActionInitialize = "initialize"
	ActionDeposit    = "deposit"
	ActionExchange   = "exchange"
	ActionWithdraw   = "withdraw"
	ActionClose      = "close"
)

// Scenario is one YAML scenario file.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Mints       []Mint    `yaml:"mints"`
	Wallets     []Wallet  `yaml:"wallets"`
	Accounts    []Account `yaml:"accounts"`

	// Booth is the default booth of every step.
	Booth BoothRef `yaml:"booth"`
	Steps []Step   `yaml:"steps"`
}

// Mint declares an asset type. Its authority is a wallet name.
type Mint struct {
	Name      string `yaml:"name"`
	Decimals  uint8  `yaml:"decimals"`
	Authority string `yaml:"authority,omitempty"`
}

// Wallet declares a participant and its native balance in SOL.
type Wallet struct {
	Name string `yaml:"name"`
	SOL  string `yaml:"sol"`
}

// Account declares a token account and its starting balance in whole units.
type Account struct {
	Name    string `yaml:"name"`
	Owner   string `yaml:"owner"`
	Mint    string `yaml:"mint"`
	Balance string `yaml:"balance,omitempty"`
}

// BoothRef identifies a booth by its admin and mint pair.
type BoothRef struct {
	Admin string `yaml:"admin"`
	MintA string `yaml:"mint_a"`
	MintB string `yaml:"mint_b"`
}

// Step is one instruction. Fields not used by the action are ignored.
type Step struct {
	Name   string   `yaml:"name,omitempty"`
	Action string   `yaml:"action"`
	Booth  BoothRef `yaml:"booth,omitempty"`

	// Signer overrides the wallet that signs the transaction.
	Signer string `yaml:"signer,omitempty"`

	// initialize
	Rate string `yaml:"rate,omitempty"`
	Fee  string `yaml:"fee,omitempty"`

	// deposit
	SourceA string `yaml:"source_a,omitempty"`
	SourceB string `yaml:"source_b,omitempty"`
	AmountA string `yaml:"amount_a,omitempty"`
	AmountB string `yaml:"amount_b,omitempty"`

	// exchange
	Trader    string `yaml:"trader,omitempty"`
	DonorMint string `yaml:"donor_mint,omitempty"`
	From      string `yaml:"from,omitempty"`
	To        string `yaml:"to,omitempty"`
	Amount    string `yaml:"amount,omitempty"`

	// withdraw and close
	ToA string `yaml:"to_a,omitempty"`
	ToB string `yaml:"to_b,omitempty"`

	// ExpectError is the error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Expect maps token account names to balances in whole units.
	Expect map[string]string `yaml:"expect,omitempty"`
}

// Label names the step in reports.
func (s *Step) Label(index int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("#%d %s", index+1, s.Action)
}

// Parse decodes a scenario and checks that its references resolve.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Validate checks names and actions without touching a ledger.
func (sc *Scenario) Validate() error {
	mints := make(map[string]bool, len(sc.Mints))
	for _, m := range sc.Mints {
		if m.Name == "" {
			return fmt.Errorf("mint without a name")
		}
		if mints[m.Name] {
			return fmt.Errorf("duplicate mint %q", m.Name)
		}
		mints[m.Name] = true
	}
	accounts := make(map[string]bool, len(sc.Accounts))
	for _, a := range sc.Accounts {
		if a.Name == "" || a.Owner == "" {
			return fmt.Errorf("account %q needs a name and an owner", a.Name)
		}
		if !mints[a.Mint] {
			return fmt.Errorf("account %q uses unknown mint %q", a.Name, a.Mint)
		}
		if accounts[a.Name] {
			return fmt.Errorf("duplicate account %q", a.Name)
		}
		accounts[a.Name] = true
	}

	for i := range sc.Steps {
		step := &sc.Steps[i]
		booth := sc.boothOf(step)
		if booth.Admin == "" || !mints[booth.MintA] || !mints[booth.MintB] {
			return fmt.Errorf("step %s: booth needs an admin and two declared mints", step.Label(i))
		}
		var refs []string
		switch step.Action {
		case ActionInitialize:
			if step.Rate == "" {
				return fmt.Errorf("step %s: rate is required", step.Label(i))
			}
		case ActionDeposit:
			refs = []string{step.SourceA, step.SourceB}
		case ActionExchange:
			if step.Trader == "" || !mints[step.DonorMint] {
				return fmt.Errorf("step %s: exchange needs a trader and a declared donor mint", step.Label(i))
			}
			refs = []string{step.From, step.To}
		case ActionWithdraw, ActionClose:
			refs = []string{step.ToA, step.ToB}
		default:
			return fmt.Errorf("step %s: unknown action %q", step.Label(i), step.Action)
		}
		for _, ref := range refs {
			if !accounts[ref] {
				return fmt.Errorf("step %s: unknown account %q", step.Label(i), ref)
			}
		}
		for name := range step.Expect {
			if !accounts[name] {
				return fmt.Errorf("step %s: expectation on unknown account %q", step.Label(i), name)
			}
		}
	}
	return nil
}

func (sc *Scenario) boothOf(step *Step) BoothRef {
	b := sc.Booth
	if step.Booth.Admin != "" {
		b.Admin = step.Booth.Admin
	}
	if step.Booth.MintA != "" {
		b.MintA = step.Booth.MintA
	}
	if step.Booth.MintB != "" {
		b.MintB = step.Booth.MintB
	}
	return b
}
