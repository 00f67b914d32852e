package vitals

import "errors"

// ErrNonFiniteValue signals that a NaN or infinite value reached a series
var ErrNonFiniteValue = errors.New("non-finite vital value")

// ErrUnknownKind signals a vital kind with no simulation rule
var ErrUnknownKind = errors.New("unknown vital kind")

// ErrValueOutOfRange signals an initial value outside the clamp range of its kind
var ErrValueOutOfRange = errors.New("vital value out of clamp range")

// ErrUnpairedPressureHistory signals systolic and diastolic seed histories of different lengths
var ErrUnpairedPressureHistory = errors.New("unpaired blood pressure history")

// ErrIncompleteDataset signals a dataset that misses a kind or defines one twice
var ErrIncompleteDataset = errors.New("incomplete vitals dataset")
