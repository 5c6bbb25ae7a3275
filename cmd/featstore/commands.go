package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlopt/featstore/container"
	"github.com/mlopt/featstore/sample"
)

var keysCmd = &cobra.Command{
	Use:   "keys <file>",
	Short: "List the fields of a container file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container.Open(args[0])
		if err != nil {
			return err
		}
		defer c.Close()

		for _, f := range c.Fields() {
			shape := make([]string, len(f.Shape))
			for i, d := range f.Shape {
				shape[i] = fmt.Sprintf("%d", d)
			}
			desc := fmt.Sprintf("%-40s %-8s (%s)", f.Name, f.DType, strings.Join(shape, "x"))
			if f.Compressed {
				desc += " compressed"
			}
			if f.HasLengths {
				desc += " ragged"
			}
			fmt.Println(desc)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <file> <key>",
	Short: "Print the decoded value stored under a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container.Open(args[0])
		if err != nil {
			return err
		}
		defer c.Close()

		s := container.NewFileSample(c)
		key := args[1]

		for _, f := range c.Fields() {
			if f.Name != key {
				continue
			}
			switch {
			case len(f.Shape) == 0:
				v, err := s.GetScalar(key)
				if err != nil {
					return err
				}
				fmt.Println(formatScalar(*v))
			case f.HasLengths:
				vl, err := s.GetVectorList(key)
				if err != nil {
					return err
				}
				for i, row := range vl.Rows {
					if row == nil {
						fmt.Printf("[%d] <absent>\n", i)
						continue
					}
					fmt.Printf("[%d] %s\n", i, formatVector(row))
				}
			default:
				v, err := s.GetVector(key)
				if err != nil {
					return err
				}
				fmt.Println(formatVector(v))
			}
			return nil
		}

		// No direct field: the key may name a sparse triplet.
		sp, err := s.GetSparse(key)
		if err != nil {
			return err
		}
		if sp == nil {
			return fmt.Errorf("key %q not found in %s", key, args[0])
		}
		for i := range sp.Row {
			fmt.Printf("(%d, %d) %s\n", sp.Row[i], sp.Col[i], formatArrayElem(sp.Data, i))
		}
		return nil
	},
}

func formatArrayElem(a *sample.Array, i int) string {
	switch a.DType {
	case sample.DTypeBool:
		return fmt.Sprintf("%v", a.Bools[i])
	case sample.DTypeInt64:
		return fmt.Sprintf("%d", a.Ints[i])
	case sample.DTypeUint64:
		return fmt.Sprintf("%d", a.Uints[i])
	case sample.DTypeFloat64:
		return fmt.Sprintf("%v", a.Floats[i])
	case sample.DTypeBytes:
		cell := a.Bytes[i*a.Width : (i+1)*a.Width]
		end := len(cell)
		for end > 0 && cell[end-1] == 0 {
			end--
		}
		return string(cell[:end])
	default:
		return "<invalid>"
	}
}

func formatScalar(v sample.Scalar) string {
	switch v.Kind {
	case sample.ScalarBool:
		return fmt.Sprintf("%v", v.B)
	case sample.ScalarInt:
		return fmt.Sprintf("%d", v.I)
	case sample.ScalarFloat:
		return fmt.Sprintf("%v", v.F)
	case sample.ScalarString:
		return v.S
	default:
		return "<null>"
	}
}

func formatVector(v *sample.Vector) string {
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = formatScalar(v.At(i))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
