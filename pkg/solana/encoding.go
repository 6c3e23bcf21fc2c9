package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/custody-bridge/pkg/solana/shortvec"
)

// Wire format (legacy messages only):
//
//	transaction: shortvec(n) | n * signature | message
//	message:     header(3) | shortvec(n) | n * key | blockhash | shortvec(m) | m * instruction
//	instruction: program index | shortvec(n) | n * account index | shortvec(n) | data

func (t Transaction) Marshal() []byte {
	var b bytes.Buffer

	_, _ = shortvec.EncodeLen(&b, len(t.Signatures))
	for _, s := range t.Signatures {
		b.Write(s[:])
	}
	b.Write(t.Message.Marshal())

	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	d := &decoder{buf: bytes.NewBuffer(b)}

	t.Signatures = make([]Signature, d.length("signatures"))
	for i := range t.Signatures {
		d.read(t.Signatures[i][:], "signature")
	}
	if d.err != nil {
		return d.err
	}

	return t.Message.Unmarshal(d.buf.Bytes())
}

func (m Message) Marshal() []byte {
	var b bytes.Buffer

	b.Write([]byte{m.Header.NumSignatures, m.Header.NumReadonlySigned, m.Header.NumReadOnly})

	_, _ = shortvec.EncodeLen(&b, len(m.Accounts))
	for _, key := range m.Accounts {
		b.Write(key)
	}

	b.Write(m.RecentBlockhash[:])

	_, _ = shortvec.EncodeLen(&b, len(m.Instructions))
	for _, ix := range m.Instructions {
		b.WriteByte(ix.ProgramIndex)
		writeVec(&b, ix.Accounts)
		writeVec(&b, ix.Data)
	}

	return b.Bytes()
}

func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty message")
	}
	// The high bit of the first byte marks a versioned message.
	if b[0]&0x80 != 0 {
		return errors.New("versioned messages not supported")
	}

	d := &decoder{buf: bytes.NewBuffer(b)}

	m.Header.NumSignatures = d.readByte("num signatures")
	m.Header.NumReadonlySigned = d.readByte("num readonly signed")
	m.Header.NumReadOnly = d.readByte("num readonly")

	m.Accounts = make([]ed25519.PublicKey, d.length("accounts"))
	for i := range m.Accounts {
		m.Accounts[i] = make(ed25519.PublicKey, ed25519.PublicKeySize)
		d.read(m.Accounts[i], "account")
	}

	d.read(m.RecentBlockhash[:], "recent blockhash")

	m.Instructions = make([]CompiledInstruction, d.length("instructions"))
	for i := range m.Instructions {
		ix := &m.Instructions[i]
		ix.ProgramIndex = d.readByte("program index")
		ix.Accounts = d.vec("instruction accounts")
		ix.Data = d.vec("instruction data")
		if d.err != nil {
			return errors.Wrapf(d.err, "instruction %d", i)
		}

		if int(ix.ProgramIndex) >= len(m.Accounts) {
			return errors.Errorf("instruction %d: program index %d out of range", i, ix.ProgramIndex)
		}
		for _, index := range ix.Accounts {
			if int(index) >= len(m.Accounts) {
				return errors.Errorf("instruction %d: account index %d out of range", i, index)
			}
		}
	}

	return d.err
}

func writeVec(b *bytes.Buffer, v []byte) {
	_, _ = shortvec.EncodeLen(b, len(v))
	b.Write(v)
}

// decoder reads wire values, keeping the first error. Reads after an error
// are no-ops returning zero values.
type decoder struct {
	buf *bytes.Buffer
	err error
}

func (d *decoder) readByte(what string) byte {
	if d.err != nil {
		return 0
	}
	v, err := d.buf.ReadByte()
	if err != nil {
		d.err = errors.Wrapf(err, "failed to read %s", what)
	}
	return v
}

func (d *decoder) length(what string) int {
	if d.err != nil {
		return 0
	}
	n, err := shortvec.DecodeLen(d.buf)
	if err != nil {
		d.err = errors.Wrapf(err, "failed to read %s length", what)
		return 0
	}
	return n
}

func (d *decoder) read(p []byte, what string) {
	if d.err != nil {
		return
	}
	if _, err := io.ReadFull(d.buf, p); err != nil {
		d.err = errors.Wrapf(err, "failed to read %s", what)
	}
}

func (d *decoder) vec(what string) []byte {
	v := make([]byte, d.length(what))
	d.read(v, what)
	return v
}
