// Package fmtt formats values for humans debugging from a terminal.
package fmtt

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

var dumper = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}

// PrintErrChain writes one line per layer of err's Unwrap chain: index, concrete type, message.
// Joined errors (Unwrap() []error) are followed depth-first.
func PrintErrChain(w io.Writer, err error) {
	if err == nil {
		fmt.Fprintln(w, "<nil>")
		return
	}
	walk(err, 0, func(depth int, e error) {
		fmt.Fprintf(w, "%*s[%d] %T: %v\n", depth*2, "", depth, e, e)
	})
}

// PrintErrChainDebug is PrintErrChain plus a spew dump and the exported fields of every layer.
func PrintErrChainDebug(w io.Writer, err error) {
	if err == nil {
		fmt.Fprintln(w, "<nil>")
		return
	}
	walk(err, 0, func(depth int, e error) {
		fmt.Fprintf(w, "[%d] %T\n", depth, e)
		fmt.Fprintf(w, "   Error(): %v\n", e)
		dumper.Fdump(w, e)

		rv := reflect.ValueOf(e)
		if rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				return
			}
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return
		}
		rt := rv.Type()
		for j := 0; j < rt.NumField(); j++ {
			if f := rt.Field(j); f.IsExported() {
				fmt.Fprintf(w, "   Field %s (%s): %+v\n", f.Name, f.Type, rv.Field(j).Interface())
			}
		}
	})
}

func walk(err error, depth int, visit func(int, error)) {
	for e := err; e != nil; depth++ {
		visit(depth, e)
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner, depth+1, visit)
			}
			return
		}
		e = errors.Unwrap(e)
	}
}
