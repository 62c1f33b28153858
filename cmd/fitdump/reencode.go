package main

import (
	"bytes"
	"fmt"

	fitcodec "github.com/lucasjlepore/fit-codec"
	"github.com/lucasjlepore/fit-codec/message"
)

// verifyReencode writes every data message of f back out unchanged, decodes
// the result and checks that each message carries the same raw field bytes.
// It returns the number of messages compared.
func verifyReencode(f *fitcodec.File, opts []fitcodec.Option) (int, error) {
	fw := fitcodec.NewFileWriter()
	want := f.Messages()
	for _, m := range want {
		if err := fw.EncodeMessage(m); err != nil {
			return 0, fmt.Errorf("encode message %d: %w", m.Index(), err)
		}
	}
	again, err := fitcodec.DecodeFile(fw.Bytes(), opts...)
	if err != nil {
		return 0, fmt.Errorf("decode re-encoded file: %w", err)
	}
	if err := compareMessages(want, again.Messages()); err != nil {
		return 0, err
	}
	return len(want), nil
}

func compareMessages(want, got []*message.Message) error {
	if len(want) != len(got) {
		return fmt.Errorf("message count %d, want %d", len(got), len(want))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.GlobalMessageNumber() != g.GlobalMessageNumber() {
			return fmt.Errorf("message %d: global %d, want %d", i, g.GlobalMessageNumber(), w.GlobalMessageNumber())
		}
		wf, gf := w.Fields(), g.Fields()
		if len(wf) != len(gf) {
			return fmt.Errorf("message %d (%s): %d fields, want %d", i, w.Name(), len(gf), len(wf))
		}
		for j := range wf {
			if wf[j].Num() != gf[j].Num() || !bytes.Equal(wf[j].Raw, gf[j].Raw) {
				return fmt.Errorf("message %d (%s): field %d differs", i, w.Name(), wf[j].Num())
			}
		}
		wd, gd := w.DevFields(), g.DevFields()
		if len(wd) != len(gd) {
			return fmt.Errorf("message %d (%s): %d developer fields, want %d", i, w.Name(), len(gd), len(wd))
		}
		for j := range wd {
			if wd[j].Def != gd[j].Def || !bytes.Equal(wd[j].Raw, gd[j].Raw) {
				return fmt.Errorf("message %d (%s): developer field %s differs", i, w.Name(), wd[j].Key)
			}
		}
		wts, wok := w.TimestampRaw()
		gts, gok := g.TimestampRaw()
		if wok != gok || wts != gts {
			return fmt.Errorf("message %d (%s): timestamp differs", i, w.Name())
		}
	}
	return nil
}
