package radlr

// ParserConfig controls which parse strategies the builder driver is
// allowed to use. The zero value is not meaningful; use DefaultConfig()
// or the With* options.
type ParserConfig struct {
	AllowCalls                     bool
	AllowLR                        bool
	AllowPeeking                   bool
	AllowContextSplitting          bool
	ContextFree                    bool
	AllowCSTNonTermShift           bool
	AllowScannerInlining           bool
	AllowAnonymousNonTermInlining  bool
	AllowByteSequences             bool
	AllowLookaheadScanners         bool
	ExportAllNonTerms              bool
	MaxK                           int
	// Debug is passed by Compile to bytecode.Emit (see SPEC_FULL.md,
	// "Supplemented features"). The emitter has no DebugSymbol
	// instruction, so the flag does not change the emitted bytecode. It
	// has no effect on parse semantics.
	Debug bool
}

// DefaultConfig returns the default ParserConfig: LR, calls and peeking are
// on, context splitting is off, and max_k is 8 (spec §6).
func DefaultConfig() ParserConfig {
	return ParserConfig{
		AllowCalls:    true,
		AllowLR:       true,
		AllowPeeking:  true,
		MaxK:          8,
	}
}

// Option mutates a ParserConfig. Follows the functional-options idiom used
// by lr/scanner.Option in the teacher package.
type Option func(*ParserConfig)

// WithMaxK overrides the maximum peek depth.
func WithMaxK(k int) Option {
	return func(c *ParserConfig) { c.MaxK = k }
}

// AllowForking turns GLR-style context splitting on or off.
func AllowForking(b bool) Option {
	return func(c *ParserConfig) { c.AllowContextSplitting = b }
}

// AllowCSTShift turns CSTNodeAccept emission on or off.
func AllowCSTShift(b bool) Option {
	return func(c *ParserConfig) { c.AllowCSTNonTermShift = b }
}

// WithDebugSymbols sets the Debug flag. No DebugSymbol instruction is
// emitted either way; see ParserConfig.Debug.
func WithDebugSymbols(b bool) Option {
	return func(c *ParserConfig) { c.Debug = b }
}

// NewConfig builds a ParserConfig starting from DefaultConfig and applying
// opts in order.
func NewConfig(opts ...Option) ParserConfig {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// RecursionType classifies how a non-terminal recurses within its own
// rules (grammar §6, Item & Closure §4.1).
type RecursionType int

const (
	RecursionNone RecursionType = iota
	RecursionLeftDirect
	RecursionLeftIndirect
	RecursionRight
)

func (r RecursionType) String() string {
	switch r {
	case RecursionLeftDirect:
		return "LeftDirect"
	case RecursionLeftIndirect:
		return "LeftIndirect"
	case RecursionRight:
		return "Right"
	default:
		return "None"
	}
}

// Classification is a derived, monotone record accumulated as the builder
// makes choices while processing a grammar (spec §3 "Classification",
// §9 "Classification is monotone"). Combining two Classifications is a
// semilattice join: Max for MaxK, logical-OR for the booleans.
type Classification struct {
	MaxK          int
	BottomUp      bool
	GotosPresent  bool
	CallsPresent  bool
	PeeksPresent  bool
	ForksPresent  bool
}

// Join combines two classifications using point-wise max / logical-OR.
func (c Classification) Join(other Classification) Classification {
	if other.MaxK > c.MaxK {
		c.MaxK = other.MaxK
	}
	c.BottomUp = c.BottomUp || other.BottomUp
	c.GotosPresent = c.GotosPresent || other.GotosPresent
	c.CallsPresent = c.CallsPresent || other.CallsPresent
	c.PeeksPresent = c.PeeksPresent || other.PeeksPresent
	c.ForksPresent = c.ForksPresent || other.ForksPresent
	return c
}
