package qkd

import (
	"testing"

	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantSend(t *testing.T) {
	// key 1010, bases 0110
	oracle := script(0b1010, 0b0110)
	sender := NewParticipant("sender", oracle, 100, 100)

	photons, err := sender.Send(4)
	require.NoError(t, err)
	require.Len(t, photons, 4)

	assert.Equal(t, "1010", sender.Key().String())
	assert.Equal(t, "0110", sender.Bases().String())
	assert.Equal(t, 4, sender.KeyLength())
	assert.Equal(t, []int{4, 4}, oracle.widths)

	for i, p := range photons {
		assert.Equal(t, sender.Key()[i], p.Value())
		assert.Equal(t, sender.Bases()[i], p.Basis())
	}
	assert.Zero(t, sender.EmitterFaults())
}

func TestParticipantSendFaultyEmitter(t *testing.T) {
	// key 11, bases 00, then per photon a coin: flip, switch
	oracle := script(0b11, 0b00, 1, 0)
	sender := NewParticipant("sender", oracle, 0, 100)

	photons, err := sender.Send(2)
	require.NoError(t, err)

	assert.Equal(t, 2, sender.EmitterFaults())
	assert.Equal(t, quantum.Zero, photons[0].Value())
	assert.Equal(t, quantum.RectilinearBasis, photons[0].Basis())
	assert.Equal(t, quantum.One, photons[1].Value())
	assert.Equal(t, quantum.DiagonalBasis, photons[1].Basis())

	// the recorded key is what was meant, not what was emitted
	assert.Equal(t, "11", sender.Key().String())
}

func TestParticipantReceive(t *testing.T) {
	beam := make([]*quantum.Photon, 0, 4)
	for _, v := range []quantum.Bit{quantum.One, quantum.Zero, quantum.One, quantum.One} {
		p, err := quantum.NewPhoton(quantum.RectilinearBasis, v)
		require.NoError(t, err)
		beam = append(beam, p)
	}

	t.Run("drawn bases", func(t *testing.T) {
		// bases 0011, then a random bit for each of the two mismatches
		oracle := script(0b0011, 0, 0)
		receiver := NewParticipant("receiver", oracle, 100, 100)
		require.NoError(t, receiver.Receive(beam))

		assert.Equal(t, "0011", receiver.Bases().String())
		assert.Equal(t, "1000", receiver.Key().String())
		assert.Equal(t, []int{4, 1, 1}, oracle.widths)
	})

	t.Run("preset bases", func(t *testing.T) {
		oracle := script()
		receiver := NewParticipant("receiver", oracle, 100, 100)
		receiver.PresetBases(quantum.Bases{0, 0, 0, 0})
		require.NoError(t, receiver.Receive(beam))

		assert.Equal(t, "1011", receiver.Key().String())
		assert.Empty(t, oracle.widths)
	})

	t.Run("preset of wrong length is redrawn", func(t *testing.T) {
		oracle := script(0)
		receiver := NewParticipant("receiver", oracle, 100, 100)
		receiver.PresetBases(quantum.Bases{1})
		require.NoError(t, receiver.Receive(beam))

		assert.Equal(t, "0000", receiver.Bases().String())
		assert.Equal(t, []int{4}, oracle.widths)
	})
}

func TestParticipantReceiveDrawsFreshBases(t *testing.T) {
	beam := func() []*quantum.Photon {
		out := make([]*quantum.Photon, 0, 4)
		for i := 0; i < 4; i++ {
			p, err := quantum.NewPhoton(quantum.RectilinearBasis, quantum.One)
			require.NoError(t, err)
			out = append(out, p)
		}
		return out
	}

	t.Run("after send", func(t *testing.T) {
		// key 1010, send bases 0110, then receive bases 0000
		oracle := script(0b1010, 0b0110, 0b0000)
		p := NewParticipant("both", oracle, 100, 100)
		_, err := p.Send(4)
		require.NoError(t, err)

		require.NoError(t, p.Receive(beam()))
		assert.Equal(t, "0000", p.Bases().String())
		assert.Equal(t, "1111", p.Key().String())
		assert.Equal(t, []int{4, 4, 4}, oracle.widths)
	})

	t.Run("second receive", func(t *testing.T) {
		// first bases 0000, second bases 1111 with one random bit per photon
		oracle := script(0b0000, 0b1111, 0, 0, 0, 0)
		p := NewParticipant("receiver", oracle, 100, 100)
		require.NoError(t, p.Receive(beam()))
		assert.Equal(t, "0000", p.Bases().String())

		require.NoError(t, p.Receive(beam()))
		assert.Equal(t, "1111", p.Bases().String())
		assert.Equal(t, "0000", p.Key().String())
	})

	t.Run("preset applies once", func(t *testing.T) {
		// four random bits for the mismatched preset, then bases 0000
		oracle := script(0, 0, 0, 0, 0b0000)
		p := NewParticipant("receiver", oracle, 100, 100)
		p.PresetBases(quantum.Bases{1, 1, 1, 1})
		require.NoError(t, p.Receive(beam()))
		assert.Equal(t, "1111", p.Bases().String())
		assert.Equal(t, []int{1, 1, 1, 1}, oracle.widths)

		oracle.widths = nil
		require.NoError(t, p.Receive(beam()))
		assert.Equal(t, "0000", p.Bases().String())
		assert.Equal(t, []int{4}, oracle.widths)
	})
}

func TestParticipantReceiveFailureKeepsState(t *testing.T) {
	beam := make([]*quantum.Photon, 0, 4)
	for i := 0; i < 4; i++ {
		p, err := quantum.NewPhoton(quantum.RectilinearBasis, quantum.One)
		require.NoError(t, err)
		beam = append(beam, p)
	}

	// first receive succeeds; second gets bases 1111 and one random bit, then runs dry
	oracle := script(0b0000, 0b1111, 0)
	p := NewParticipant("receiver", oracle, 100, 100)
	require.NoError(t, p.Receive(beam))

	err := p.Receive(beam)
	require.ErrorIs(t, err, quantum.ErrOracleFailure)
	assert.Equal(t, "0000", p.Bases().String())
	assert.Equal(t, "1111", p.Key().String())
	assert.Len(t, p.Key(), len(p.Bases()))
}

func TestParticipantResend(t *testing.T) {
	beam := make([]*quantum.Photon, 0, 3)
	for i := 0; i < 3; i++ {
		p, err := quantum.NewPhoton(quantum.DiagonalBasis, quantum.One)
		require.NoError(t, err)
		beam = append(beam, p)
	}

	eve := NewParticipant("eavesdropper", script(0b111), 100, 100)
	require.NoError(t, eve.Receive(beam))

	out, err := eve.Resend()
	require.NoError(t, err)
	for _, p := range out {
		assert.Equal(t, quantum.DiagonalBasis, p.Basis())
		assert.Equal(t, quantum.One, p.Value())
	}

	// after a reset the resend bases are drawn afresh
	eve.oracle = script(0b000)
	eve.ResetBases()
	out, err = eve.Resend()
	require.NoError(t, err)
	assert.Equal(t, "000", eve.Bases().String())
	for _, p := range out {
		assert.Equal(t, quantum.RectilinearBasis, p.Basis())
	}
}

func TestParticipantOracleFailure(t *testing.T) {
	sender := NewParticipant("sender", script(0b1), 100, 100)
	_, err := sender.Send(1)
	assert.ErrorIs(t, err, quantum.ErrOracleFailure)
}
