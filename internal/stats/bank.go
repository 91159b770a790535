package stats

// Radios is the number of beacon receivers on a Grape 2 board.
const Radios = 3

// Axes is the number of magnetometer axes.
const Axes = 3

// Kind identifies the family a channel belongs to.
type Kind string

const (
	KindAmplitude    Kind = "amplitude"
	KindFrequency    Kind = "frequency"
	KindMagnetometer Kind = "magnetometer"
)

// Bank holds the nine channels fed by each sensor record: amplitude and
// frequency for every radio plus the three magnetometer axes.
type Bank struct {
	Amplitude    [Radios]*Channel
	Frequency    [Radios]*Channel
	Magnetometer [Axes]*Channel
}

// NewBank creates a bank. Amplitude and frequency compare signed values;
// magnetometer axes use magPolicy since field components swing through zero.
func NewBank(magPolicy Policy) *Bank {
	b := &Bank{}
	for i := 0; i < Radios; i++ {
		b.Amplitude[i] = NewChannel(PolicySigned)
		b.Frequency[i] = NewChannel(PolicySigned)
	}
	for i := 0; i < Axes; i++ {
		b.Magnetometer[i] = NewChannel(magPolicy)
	}
	return b
}

// Sample is one record's worth of channel values.
type Sample struct {
	Timestamp    string
	Amplitude    [Radios]float64
	Frequency    [Radios]float64
	Magnetometer [Axes]float64
}

// Observe feeds every value of the sample into its channel.
func (b *Bank) Observe(s Sample) {
	for i := 0; i < Radios; i++ {
		b.Amplitude[i].Update(s.Amplitude[i], s.Timestamp)
		b.Frequency[i].Update(s.Frequency[i], s.Timestamp)
	}
	for i := 0; i < Axes; i++ {
		b.Magnetometer[i].Update(s.Magnetometer[i], s.Timestamp)
	}
}

// Each visits every channel with its kind and index.
func (b *Bank) Each(fn func(kind Kind, index int, c *Channel)) {
	for i, c := range b.Amplitude {
		fn(KindAmplitude, i, c)
	}
	for i, c := range b.Frequency {
		fn(KindFrequency, i, c)
	}
	for i, c := range b.Magnetometer {
		fn(KindMagnetometer, i, c)
	}
}
