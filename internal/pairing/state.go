package pairing

// State is either unpaired or paired with one printer address.
type State struct {
	paired  bool
	address string
}

func Unpaired() State { return State{} }

func Paired(address string) State { return State{paired: true, address: address} }

// Address returns the paired address, or false when unpaired.
func (s State) Address() (string, bool) {
	return s.address, s.paired
}

func (s State) IsPaired() bool { return s.paired }

func (s State) String() string {
	if !s.paired {
		return "unpaired"
	}
	return "paired with " + s.address
}
