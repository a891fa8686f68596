package devirtualize

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/altair/pkg/keep"
	"github.com/chazu/altair/pkg/mono"
	"github.com/chazu/altair/pkg/mutators"
	"github.com/chazu/altair/pkg/rbc"
	"github.com/chazu/altair/pkg/resolve"
	"github.com/chazu/altair/pkg/walk"
)

var log = commonlog.GetLogger("altair.devirtualize")

// Config enables the four staticizing phases independently.
type Config struct {
	VMethodsNotUsingThis bool `toml:"vmethods-not-using-this"`
	DMethodsNotUsingThis bool `toml:"dmethods-not-using-this"`
	VMethodsUsingThis    bool `toml:"vmethods-using-this"`
	DMethodsUsingThis    bool `toml:"dmethods-using-this"`
}

// DefaultConfig enables all four phases.
func DefaultConfig() Config {
	return Config{
		VMethodsNotUsingThis: true,
		DMethodsNotUsingThis: true,
		VMethodsUsingThis:    true,
		DMethodsUsingThis:    true,
	}
}

// Metrics is the outcome report for one run. Call counters record each
// patched call site under its original invoke kind; method counters record
// how many candidates were staticized per protocol. Counters from a run
// that returned an error are not meaningful.
type Metrics struct {
	VirtualCalls int
	SuperCalls   int
	DirectCalls  int

	MethodsDroppingThis int
	MethodsKeepingThis  int
}

// Devirtualizer is the pass orchestrator. It is not safe for concurrent
// use: a run mutates the scope destructively and requires exclusive access
// until it returns.
type Devirtualizer struct {
	cfg     Config
	keeper  keep.Keeper
	metrics Metrics
}

// New builds a Devirtualizer. keeper may be nil when no retention rules
// apply.
func New(cfg Config, keeper keep.Keeper) *Devirtualizer {
	return &Devirtualizer{cfg: cfg, keeper: keeper}
}

// Run executes the enabled phases over the scope, restricting conversion to
// methods declared on the target classes. A nil target slice means every
// class in scope. Phases always run in the same order (virtual then direct
// methods not using the receiver, then virtual then direct methods using
// it), and each phase finishes rewriting and staticizing before the next
// re-scans the mutated program.
func (d *Devirtualizer) Run(s *rbc.Scope, targets []*rbc.Class) (Metrics, error) {
	d.metrics = Metrics{}
	if targets == nil {
		targets = s.Classes
	}
	runID := uuid.New()
	log.Infof("run %s: %d classes in scope, %d target classes", runID, len(s.Classes), len(targets))

	if d.cfg.VMethodsNotUsingThis {
		methods, err := d.eligibleNotUsingThis(devirtualizableVMethods(s, targets))
		if err != nil {
			return Metrics{}, err
		}
		if err := d.staticizeNotUsingThis(s, methods); err != nil {
			return Metrics{}, err
		}
	}

	if d.cfg.DMethodsNotUsingThis {
		methods, err := d.eligibleNotUsingThis(devirtualizableDMethods(s, targets))
		if err != nil {
			return Metrics{}, err
		}
		if err := d.staticizeNotUsingThis(s, methods); err != nil {
			return Metrics{}, err
		}
	}

	if d.cfg.VMethodsUsingThis {
		methods := d.eligible(devirtualizableVMethods(s, targets))
		if err := d.staticizeUsingThis(s, methods); err != nil {
			return Metrics{}, err
		}
	}

	if d.cfg.DMethodsUsingThis {
		methods := d.eligible(devirtualizableDMethods(s, targets))
		if err := d.staticizeUsingThis(s, methods); err != nil {
			return Metrics{}, err
		}
	}

	log.Infof("run %s: %d virtual, %d super, %d direct call sites patched; %d methods dropped this, %d kept this",
		runID, d.metrics.VirtualCalls, d.metrics.SuperCalls, d.metrics.DirectCalls,
		d.metrics.MethodsDroppingThis, d.metrics.MethodsKeepingThis)
	return d.metrics, nil
}

type methodSet map[*rbc.Method]struct{}

// ----------------------------------------------------------------------------
// Candidate gathering
// ----------------------------------------------------------------------------

func classSet(classes []*rbc.Class) map[*rbc.Class]bool {
	set := make(map[*rbc.Class]bool, len(classes))
	for _, c := range classes {
		set[c] = true
	}
	return set
}

// devirtualizableVMethods returns the monomorphic virtual methods declared
// on a target class.
func devirtualizableVMethods(s *rbc.Scope, targets []*rbc.Class) []*rbc.Method {
	set := classSet(targets)
	var out []*rbc.Method
	for _, m := range mono.Devirtualizable(s) {
		if set[m.Class] {
			out = append(out, m)
		}
	}
	return out
}

// devirtualizableDMethods returns every direct method declared on a target
// class, excluding constructors and methods that are already static.
func devirtualizableDMethods(s *rbc.Scope, targets []*rbc.Class) []*rbc.Method {
	set := classSet(targets)
	var out []*rbc.Method
	for _, c := range s.Classes {
		if !set[c] {
			continue
		}
		for _, m := range c.DMethods {
			if m.IsConstructor() || m.IsStatic() {
				continue
			}
			out = append(out, m)
		}
	}
	return out
}

// eligible applies the keep/external/abstract filter to a candidate list.
func (d *Devirtualizer) eligible(candidates []*rbc.Method) methodSet {
	found := make(methodSet)
	for _, m := range candidates {
		if d.keeper != nil && d.keeper.Keep(m) {
			continue
		}
		if m.External || m.IsAbstract() {
			continue
		}
		found[m] = struct{}{}
	}
	return found
}

// eligibleNotUsingThis narrows eligible candidates to those whose body never
// reads the receiver.
func (d *Devirtualizer) eligibleNotUsingThis(candidates []*rbc.Method) (methodSet, error) {
	found := make(methodSet)
	for m := range d.eligible(candidates) {
		uses, err := usesThis(m)
		if err != nil {
			return nil, err
		}
		if uses {
			continue
		}
		found[m] = struct{}{}
	}
	return found, nil
}

// usesThis reports whether the method body reads the register holding its
// receiver anywhere after loading it. The check is by register identity:
// a slot reused for an unrelated value still counts as a use.
func usesThis(m *rbc.Method) (bool, error) {
	code := m.Code
	if code == nil || len(code.Insns) == 0 {
		return false, fmt.Errorf("devirtualize: %s has no instructions", m)
	}
	load := code.Insns[0]
	if load.Op != rbc.OpLoadParamObject {
		return false, fmt.Errorf("devirtualize: %s does not start with a receiver load, found %s", m, load)
	}
	thisReg := load.Dest
	for _, in := range code.Insns {
		if in.Op.IsRange() {
			if thisReg >= in.RangeBase && thisReg < in.RangeBase+in.RangeSize {
				return true, nil
			}
		}
		for i := 0; i < in.SrcCount(); i++ {
			if in.Src(i) == thisReg {
				return true, nil
			}
		}
	}
	return false, nil
}

// ----------------------------------------------------------------------------
// Call-site rewriting
// ----------------------------------------------------------------------------

func virtualToStatic(op rbc.Opcode) (rbc.Opcode, error) {
	switch op {
	case rbc.OpInvokeVirtual:
		return rbc.OpInvokeStatic, nil
	case rbc.OpInvokeVirtualRange:
		return rbc.OpInvokeStaticRange, nil
	default:
		return 0, fmt.Errorf("devirtualize: %s is not a virtual invoke", op)
	}
}

func superToStatic(op rbc.Opcode) (rbc.Opcode, error) {
	switch op {
	case rbc.OpInvokeSuper:
		return rbc.OpInvokeStatic, nil
	case rbc.OpInvokeSuperRange:
		return rbc.OpInvokeStaticRange, nil
	default:
		return 0, fmt.Errorf("devirtualize: %s is not a super invoke", op)
	}
}

func directToStatic(op rbc.Opcode) (rbc.Opcode, error) {
	switch op {
	case rbc.OpInvokeDirect:
		return rbc.OpInvokeStatic, nil
	case rbc.OpInvokeDirectRange:
		return rbc.OpInvokeStaticRange, nil
	default:
		return 0, fmt.Errorf("devirtualize: %s is not a direct invoke", op)
	}
}

// patchCallSite translates the instruction's opcode to its static form and
// repoints it at callee, counting the site under its original invoke kind.
// A static or unrecognized opcode here means an earlier phase's work leaked
// into this one and the run must abort.
func patchCallSite(callee *rbc.Method, in *rbc.Instruction, metrics *Metrics) error {
	var newOp rbc.Opcode
	var err error
	switch {
	case in.Op.IsInvokeVirtual():
		newOp, err = virtualToStatic(in.Op)
		metrics.VirtualCalls++
	case in.Op.IsInvokeSuper():
		newOp, err = superToStatic(in.Op)
		metrics.SuperCalls++
	case in.Op.IsInvokeDirect():
		newOp, err = directToStatic(in.Op)
		metrics.DirectCalls++
	default:
		return fmt.Errorf("devirtualize: cannot patch call site %s targeting %s", in, callee)
	}
	if err != nil {
		return err
	}
	in.Op = newOp
	in.Target = callee
	return nil
}

// resolveTarget maps an instruction's target reference to the definition it
// reaches, consulting the resolver only when the reference itself is not a
// rewritable definition.
func resolveTarget(s *rbc.Scope, in *rbc.Instruction, search resolve.Search) (*rbc.Method, error) {
	callee := in.Target
	if callee.IsConcrete() {
		return callee, nil
	}
	return resolve.Method(s, callee, search)
}

// fixCallSites rewrites every call site reaching a method in targets,
// leaving argument lists untouched: the receiver stays as the first
// argument of the now-static callee.
func (d *Devirtualizer) fixCallSites(s *rbc.Scope, targets methodSet) error {
	return walk.Opcodes(s, walk.All, func(_ *rbc.Method, in *rbc.Instruction) error {
		if !in.HasTarget() {
			return nil
		}
		callee, err := resolveTarget(s, in, resolve.Virtual)
		if err != nil {
			return err
		}
		if _, ok := targets[callee]; !ok {
			return nil
		}
		if in.Op.IsInvokeStatic() {
			return fmt.Errorf("devirtualize: call site %s is already static", in)
		}
		return patchCallSite(callee, in, &d.metrics)
	})
}

// fixCallSitesAndDropThisArg rewrites every call site reaching a method in
// statics and removes the receiver from its argument list. Explicit-form
// operands shift down one position; a range window advances and shrinks by
// one, except that a window of size one degenerates to a zero-argument
// explicit-form invoke, which replaces the instruction wholesale after the
// body's scan completes.
func (d *Devirtualizer) fixCallSitesAndDropThisArg(s *rbc.Scope, statics methodSet) error {
	return walk.Code(s, walk.All, func(_ *rbc.Method, code *rbc.Code) error {
		type replacement struct {
			old, repl *rbc.Instruction
		}
		var replacements []replacement
		for _, in := range code.Insns {
			if !in.HasTarget() {
				continue
			}
			callee, err := resolveTarget(s, in, resolve.Any)
			if err != nil {
				return err
			}
			if _, ok := statics[callee]; !ok {
				continue
			}
			if err := patchCallSite(callee, in, &d.metrics); err != nil {
				return err
			}
			if in.Op.IsRange() {
				if in.RangeSize == 1 {
					// The call took only the receiver; a range invoke
					// cannot encode zero arguments.
					repl := rbc.NewInvoke(rbc.OpInvokeStatic, callee)
					replacements = append(replacements, replacement{in, repl})
				} else {
					in.RangeBase++
					in.RangeSize--
				}
			} else {
				n := in.SrcCount()
				for i := 0; i < n-1; i++ {
					in.SetSrc(i, in.Src(i+1))
				}
				in.SetSrcCount(n - 1)
			}
		}
		for _, r := range replacements {
			if err := code.Replace(r.old, r.repl); err != nil {
				return err
			}
		}
		return nil
	})
}

// ----------------------------------------------------------------------------
// Phase execution
// ----------------------------------------------------------------------------

func (d *Devirtualizer) staticizeNotUsingThis(s *rbc.Scope, methods methodSet) error {
	if err := d.fixCallSitesAndDropThisArg(s, methods); err != nil {
		return err
	}
	for m := range methods {
		log.Debugf("staticized %s, keep this: false", m)
		if err := mutators.MakeStatic(m, false); err != nil {
			return err
		}
	}
	log.Infof("staticized %d methods not using this", len(methods))
	d.metrics.MethodsDroppingThis += len(methods)
	return nil
}

func (d *Devirtualizer) staticizeUsingThis(s *rbc.Scope, methods methodSet) error {
	if err := d.fixCallSites(s, methods); err != nil {
		return err
	}
	for m := range methods {
		log.Debugf("staticized %s, keep this: true", m)
		if err := mutators.MakeStatic(m, true); err != nil {
			return err
		}
	}
	log.Infof("staticized %d methods using this", len(methods))
	d.metrics.MethodsKeepingThis += len(methods)
	return nil
}
