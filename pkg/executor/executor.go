package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// ErrNotAFunction is returned when support code is not a Go function.
var ErrNotAFunction = errors.New("step handler must be a function")

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Argument is a value captured from step text by a matcher.
// Start is the byte offset of the value within the step text, or -1 when
// the capture group did not participate in the match.
type Argument struct {
	Value string
	Start int
}

// Outcome is the result of running support code once. A nil Err means the
// action completed normally; Value is whatever the action returned.
type Outcome struct {
	Value any
	Err   error
}

// Failed reports whether the action terminated abnormally.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// SupportCodeExecutor binds an action to the arguments captured for one
// match. It is created per match and must not be executed twice.
type SupportCodeExecutor struct {
	stepDefinitionID string
	action           Action
	args             []Argument
}

// NewSupportCodeExecutor creates an executor for the given step definition.
func NewSupportCodeExecutor(stepDefinitionID string, action Action, args []Argument) *SupportCodeExecutor {
	return &SupportCodeExecutor{
		stepDefinitionID: stepDefinitionID,
		action:           action,
		args:             args,
	}
}

// Execute invokes the action with the captured arguments. Errors and panics
// raised by the action are returned in the Outcome, never propagated.
func (e *SupportCodeExecutor) Execute(ctx context.Context) (outcome Outcome) {
	if err := ctx.Err(); err != nil {
		return Outcome{Err: fmt.Errorf("step was not started: %w", err)}
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Err: panicError(r)}
		}
	}()

	value, err := e.action.Invoke(ctx, e.args)
	return Outcome{Value: value, Err: err}
}

// StepDefinitionID returns the id of the step definition that produced this executor.
func (e *SupportCodeExecutor) StepDefinitionID() string {
	return e.stepDefinitionID
}

// Arguments returns the captured arguments.
func (e *SupportCodeExecutor) Arguments() []Argument {
	return e.args
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(ctx context.Context, args []Argument) (any, error)

// Invoke calls f(ctx, args).
func (f ActionFunc) Invoke(ctx context.Context, args []Argument) (any, error) {
	return f(ctx, args)
}

// FuncAction invokes an arbitrary Go function, converting captured
// arguments to the function's parameter types.
type FuncAction struct {
	fn reflect.Value
}

// NewFuncAction validates fn and wraps it as an Action.
func NewFuncAction(fn any) (*FuncAction, error) {
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return nil, fmt.Errorf("%w, got %T", ErrNotAFunction, fn)
	}

	return &FuncAction{fn: reflect.ValueOf(fn)}, nil
}

// Arity is the number of captured arguments the function consumes.
// context.Context parameters are not counted.
func (a *FuncAction) Arity() int {
	fnType := a.fn.Type()
	arity := 0
	for i := 0; i < fnType.NumIn(); i++ {
		if fnType.In(i) != contextType {
			arity++
		}
	}

	return arity
}

// Invoke calls the function and returns its non-error result, if any.
func (a *FuncAction) Invoke(ctx context.Context, args []Argument) (any, error) {
	callArgs, err := buildCallArgs(ctx, a.fn.Type(), args)
	if err != nil {
		return nil, err
	}

	return processReturnValues(a.fn.Type(), a.fn.Call(callArgs))
}

// buildCallArgs constructs the argument slice for function invocation.
// context.Context parameters receive ctx; every other parameter consumes the
// next captured argument.
func buildCallArgs(ctx context.Context, fnType reflect.Type, captured []Argument) ([]reflect.Value, error) {
	numParams := fnType.NumIn()
	callArgs := make([]reflect.Value, 0, numParams)

	capturedIndex := 0
	for i := 0; i < numParams; i++ {
		paramType := fnType.In(i)

		if paramType == contextType {
			callArgs = append(callArgs, reflect.ValueOf(ctx))
			continue
		}

		if capturedIndex >= len(captured) {
			return nil, fmt.Errorf("not enough captured arguments: expected %d more, have %d", numParams-i, len(captured)-capturedIndex)
		}

		arg := captured[capturedIndex].Value
		capturedIndex++

		converted, err := convertArg(arg, paramType)
		if err != nil {
			return nil, fmt.Errorf("failed to convert argument %q to %s: %w", arg, paramType, err)
		}
		callArgs = append(callArgs, converted)
	}

	if capturedIndex < len(captured) {
		return nil, fmt.Errorf("too many captured arguments: function takes %d, have %d", capturedIndex, len(captured))
	}

	return callArgs, nil
}

// processReturnValues splits the results into the first non-nil error and
// the first other value.
func processReturnValues(fnType reflect.Type, results []reflect.Value) (any, error) {
	var value any
	var retErr error

	for i, result := range results {
		if fnType.Out(i).Implements(errorType) {
			if retErr == nil && !isNil(result) {
				retErr = result.Interface().(error)
			}
			continue
		}

		if value == nil {
			value = result.Interface()
		}
	}

	return value, retErr
}

// isNil reports whether v holds nil. Value types such as a struct
// implementing error are never nil.
func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

// convertArg converts a captured string to the target type. Named types
// with a supported underlying kind are converted as well.
func convertArg(arg string, targetType reflect.Type) (reflect.Value, error) {
	var v any

	switch targetType.Kind() {
	case reflect.String:
		v = arg

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(arg, 10, targetType.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v = n

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(arg, 10, targetType.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v = n

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(arg, targetType.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v = f

	case reflect.Bool:
		b, err := strconv.ParseBool(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		v = b

	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type: %s", targetType.Kind())
	}

	return reflect.ValueOf(v).Convert(targetType), nil
}
