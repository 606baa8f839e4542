package tx

import "fmt"

// Assemble builds an unsigned transaction from a selection.
//
// Outputs are ordered: targets in caller order, then the memo data output
// with zero value if memo is non-nil, then change to changeAddress only when
// sel.Change is positive. No zero-value change output is ever emitted.
func Assemble(sel *Selection, targets []SpendTarget, changeAddress string, memo []byte) (*UnsignedTx, error) {
	if sel == nil {
		return nil, fmt.Errorf("%w: selection", ErrNilParam)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no targets", ErrInvalidTarget)
	}
	if sel.Change > 0 && changeAddress == "" {
		return nil, fmt.Errorf("%w: change address required for change %d", ErrInvalidParams, sel.Change)
	}
	if memo != nil && len(memo) == 0 {
		return nil, fmt.Errorf("%w: empty memo script", ErrInvalidMemo)
	}

	outputs := make([]*Output, 0, len(targets)+2)
	for i, t := range targets {
		if t.Address == "" || t.Amount == 0 {
			return nil, fmt.Errorf("%w: target[%d]", ErrInvalidTarget, i)
		}
		outputs = append(outputs, &Output{Address: t.Address, Amount: t.Amount})
	}
	if memo != nil {
		outputs = append(outputs, &Output{Script: append([]byte(nil), memo...)})
	}
	if sel.Change > 0 {
		outputs = append(outputs, &Output{Address: changeAddress, Amount: sel.Change})
	}

	inputs := make([]*UTXO, len(sel.Inputs))
	copy(inputs, sel.Inputs)

	unsigned := &UnsignedTx{Inputs: inputs, Outputs: outputs, Fee: sel.Fee}
	if err := unsigned.Validate(); err != nil {
		return nil, err
	}
	return unsigned, nil
}
