package value

import (
	"bytes"

	"contractir/internal/errors"
	"contractir/internal/types"
)

// Equal compares two values of type t by content. Slices compare their
// referenced bytes, never their buffer identity; arrays of slices compare
// element by element.
func Equal(r Reader, t types.Type, a, b Value) (bool, error) {
	switch av := a.(type) {
	case Scalar:
		bv, ok := b.(Scalar)
		if !ok {
			return false, errors.Mismatch(errors.PhaseExec, nil, t, valueKind(b))
		}
		return av.Equal(bv), nil

	case Slice:
		bv, ok := b.(Slice)
		if !ok {
			return false, errors.Mismatch(errors.PhaseExec, nil, t, valueKind(b))
		}
		if !hasNestedHandles(t) {
			x, err := r.Bytes(av)
			if err != nil {
				return false, err
			}
			y, err := r.Bytes(bv)
			if err != nil {
				return false, err
			}
			return bytes.Equal(x, y), nil
		}
		xs, err := Elements(r, t, av)
		if err != nil {
			return false, err
		}
		ys, err := Elements(r, t, bv)
		if err != nil {
			return false, err
		}
		if len(xs) != len(ys) {
			return false, nil
		}
		elem, _ := types.ElemType(t)
		for i := range xs {
			if eq, err := Equal(r, elem, xs[i], ys[i]); err != nil || !eq {
				return false, err
			}
		}
		return true, nil

	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av) != len(bv) {
			return false, errors.Mismatch(errors.PhaseExec, nil, t, valueKind(b))
		}
		comps := types.Components(t)
		for i := range av {
			if eq, err := Equal(r, comps[i], av[i], bv[i]); err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	}
	return false, errors.Mismatch(errors.PhaseExec, nil, t, valueKind(a))
}

// hasNestedHandles reports whether the cells of slice type t contain slice
// handles, which must be compared by what they reference
func hasNestedHandles(t types.Type) bool {
	arr, ok := t.(*types.ArrayType)
	if !ok {
		return false
	}
	return containsSlice(arr.Elem)
}

func containsSlice(t types.Type) bool {
	if types.IsSlice(t) {
		return true
	}
	for _, c := range types.Components(t) {
		if containsSlice(c) {
			return true
		}
	}
	return false
}
