package graphql

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ErrNotReadOnly is returned by CheckReadOnly for documents containing a
// mutation or subscription.
var ErrNotReadOnly = errors.New("graphql: only query operations are allowed")

// CheckReadOnly returns an error unless doc parses, contains at least one
// operation and every operation in it is a query.
func CheckReadOnly(doc string) error {
	ops, err := OperationTypes(doc)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return errors.New("graphql: document contains no operation")
	}
	for _, op := range ops {
		if op != string(ast.Query) {
			return fmt.Errorf("%w: found %s", ErrNotReadOnly, op)
		}
	}
	return nil
}

// OperationTypes parses doc and lists the type of every operation
// definition in it, in order. Shorthand selection sets count as "query";
// fragment definitions are skipped.
func OperationTypes(doc string) ([]string, error) {
	parsed, err := parser.ParseQuery(&ast.Source{Name: "query", Input: doc})
	if err != nil {
		return nil, fmt.Errorf("graphql: parse document: %w", err)
	}

	var ops []string
	for _, op := range parsed.Operations {
		ops = append(ops, string(op.Operation))
	}
	return ops, nil
}
