package instance

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/text/encoding/htmlindex"
)

// Write stores inst as four files in dir. WithNaming, WithHeader and
// WithEncoding select the layout; by default it is the published one in
// UTF-8. Keys follow stage and cast order so the output diffs cleanly
// against the published files.
func Write(dir, name string, inst *Instance, opts ...Option) (FileSet, error) {
	o := newOptions(opts)
	files := o.naming.FileSet(dir, name)
	enc, err := htmlindex.Get(o.encoding)
	if err != nil {
		return files, fmt.Errorf("write instance %s: encoding %q: %w", name, o.encoding, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return files, fmt.Errorf("write instance %s: %w", name, err)
	}

	p := inst.parts
	env, err := sequencedJSON(StageSeqKey, p.Env.StageSeq, p.Env.Machines)
	if err != nil {
		return files, fmt.Errorf("write instance %s: %w", name, err)
	}
	casts, err := sequencedJSON(CastSeqKey, p.Casts.CastSeq, p.Casts.Charges)
	if err != nil {
		return files, fmt.Errorf("write instance %s: %w", name, err)
	}
	due, err := dueDateJSON(inst)
	if err != nil {
		return files, fmt.Errorf("write instance %s: %w", name, err)
	}
	pt, err := processingTimeCSV(inst, o.header)
	if err != nil {
		return files, fmt.Errorf("write instance %s: %w", name, err)
	}

	for _, out := range []struct {
		path string
		data []byte
	}{
		{files.MachineEnv, env},
		{files.Cast, casts},
		{files.DueDate, due},
		{files.ProcessingTime, pt},
	} {
		data, err := enc.NewEncoder().Bytes(out.data)
		if err != nil {
			return files, fmt.Errorf("write instance %s: %s: %w", name, out.path, err)
		}
		if err := os.WriteFile(out.path, data, 0o644); err != nil {
			return files, fmt.Errorf("write instance %s: %w", name, err)
		}
	}
	return files, nil
}

// WriteWithNaming is Write with explicit file naming.
func WriteWithNaming(dir, name string, inst *Instance, naming Naming, opts ...Option) (FileSet, error) {
	return Write(dir, name, inst, append(opts, WithNaming(naming))...)
}

// sequencedJSON renders {"<seqKey>": seq, "<id>": values[id], ...} with ids in
// seq order, one key per line.
func sequencedJSON(seqKey string, seq []string, values map[string][]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	if err := writeField(&buf, seqKey, seq, len(seq) == 0); err != nil {
		return nil, err
	}
	for i, id := range seq {
		if err := writeField(&buf, id, values[id], i == len(seq)-1); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func dueDateJSON(inst *Instance) ([]byte, error) {
	charges := inst.Charges()
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, ch := range charges {
		if err := writeField(&buf, ch, inst.parts.DueDates[ch], i == len(charges)-1); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, value any, last bool) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.WriteString("  ")
	buf.Write(k)
	buf.WriteString(": ")
	buf.Write(v)
	if !last {
		buf.WriteByte(',')
	}
	buf.WriteByte('\n')
	return nil
}

// processingTimeCSV emits rows in charge order, then stage and machine order.
func processingTimeCSV(inst *Instance, header Header) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{header.Charge, header.Machine, header.Time}); err != nil {
		return nil, err
	}
	for _, ch := range inst.Charges() {
		rows := inst.parts.ProcessingTimes[ch]
		for _, stage := range inst.parts.Env.StageSeq {
			for _, m := range inst.parts.Env.Machines[stage] {
				pt, ok := rows[m]
				if !ok {
					continue
				}
				if err := w.Write([]string{ch, m, strconv.Itoa(pt)}); err != nil {
					return nil, err
				}
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
