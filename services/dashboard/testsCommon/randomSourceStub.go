package testsCommon

import "sync"

// RandomSourceStub -
type RandomSourceStub struct {
	mut    sync.Mutex
	Values []float64
	index  int
}

// NewRandomSourceStub returns a source that cycles through the provided values
func NewRandomSourceStub(values ...float64) *RandomSourceStub {
	return &RandomSourceStub{
		Values: values,
	}
}

// Float64 -
func (stub *RandomSourceStub) Float64() float64 {
	stub.mut.Lock()
	defer stub.mut.Unlock()

	if len(stub.Values) == 0 {
		return 0.5
	}

	value := stub.Values[stub.index%len(stub.Values)]
	stub.index++

	return value
}

// Calls returns how many values were drawn
func (stub *RandomSourceStub) Calls() int {
	stub.mut.Lock()
	defer stub.mut.Unlock()

	return stub.index
}
