package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/firecraftgaming/binary-structured-objects/interchange"
	"github.com/firecraftgaming/binary-structured-objects/witgen"
)

var errUsage = errors.New("usage")

func (a *app) check(schemaPath string) error {
	reg, err := a.registry(schemaPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Types: %d\n", len(reg.Types()))
	for _, name := range reg.Types() {
		t, _ := reg.Type(name)
		fmt.Fprintf(a.stdout, "  %s %s\n", name, t)
	}

	fmt.Fprintf(a.stdout, "\nSchemas: %d\n", len(reg.Schemas()))
	for _, name := range reg.Schemas() {
		ref, _ := reg.Layout(name)
		fmt.Fprintf(a.stdout, "  %s (%d nodes)\n    %s\n", name, reg.Set().Reachable(ref), reg.Set().Format(ref))
	}
	return nil
}

func (a *app) encode(schemaPath, typeName, input string) error {
	reg, err := a.registry(schemaPath)
	if err != nil {
		return err
	}
	value, err := a.readValue(input)
	if err != nil {
		return err
	}
	data, err := reg.Encode(typeName, value)
	if err != nil {
		return err
	}
	return a.writeBinary(data)
}

func (a *app) decode(schemaPath, typeName, input string) error {
	reg, err := a.registry(schemaPath)
	if err != nil {
		return err
	}
	data, err := a.readBinary(input)
	if err != nil {
		return err
	}
	value, err := reg.Decode(typeName, data)
	if err != nil {
		return err
	}
	out, err := a.format.Marshal(value)
	if err != nil {
		return err
	}
	if _, err := a.stdout.Write(out); err != nil {
		return err
	}
	if a.format.Name() == "json" {
		_, err = io.WriteString(a.stdout, "\n")
	}
	return err
}

func (a *app) wit(schemaPath string, names []string) error {
	reg, err := a.registry(schemaPath)
	if err != nil {
		return err
	}
	iface, err := witgen.Build(reg.Table(), names)
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.stdout, witgen.Render(iface))
	return err
}

func (a *app) stat(schemaPath, typeName, input string) error {
	reg, err := a.registry(schemaPath)
	if err != nil {
		return err
	}
	value, err := a.readValue(input)
	if err != nil {
		return err
	}
	data, err := reg.Encode(typeName, value)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "format\tbytes\tvs bsos\t\n")
	fmt.Fprintf(w, "bsos\t%d\t1.00x\t\n", len(data))
	for _, name := range a.formats.Names() {
		c, _ := a.formats.Get(name)
		out, err := c.Marshal(value)
		if err != nil {
			fmt.Fprintf(w, "%s\terror\t-\t\n", name)
			continue
		}
		ratio := "-"
		if len(data) > 0 {
			ratio = fmt.Sprintf("%.2fx", float64(len(out))/float64(len(data)))
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t\n", name, len(out), ratio)
	}
	return w.Flush()
}

func (a *app) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(a.stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// readValue reads one value in the configured interchange format.
func (a *app) readValue(path string) (any, error) {
	data, err := a.readInput(path)
	if err != nil {
		return nil, err
	}
	v, err := a.format.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return interchange.Normalize(v), nil
}

func (a *app) readBinary(path string) ([]byte, error) {
	data, err := a.readInput(path)
	if err != nil || !a.hex {
		return data, err
	}
	text := strings.Join(strings.Fields(string(data)), "")
	out, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("read hex input: %w", err)
	}
	return out, nil
}

func (a *app) writeBinary(data []byte) error {
	if a.hex {
		_, err := fmt.Fprintf(a.stdout, "% x\n", data)
		return err
	}
	_, err := a.stdout.Write(data)
	return err
}
