package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/smartplot/endian"
	"github.com/arloliu/smartplot/format"
	"github.com/arloliu/smartplot/message"
	"github.com/arloliu/smartplot/sample"
)

// maxShown limits the values printed per axis.
const maxShown = 8

// describe renders one decoded message on a single line.
func describe(engine endian.EndianEngine, msg message.Message) string {
	var sb strings.Builder

	sb.WriteString(msg.Action.String())
	sb.WriteByte(' ')
	sb.WriteString(msg.Plot)
	sb.WriteByte('/')
	sb.WriteString(msg.Curve)
	if msg.Action.IsUpdate() {
		sb.WriteString(" start=")
		sb.WriteString(strconv.FormatUint(uint64(msg.Start), 10))
	}
	sb.WriteString(" count=")
	sb.WriteString(strconv.FormatUint(uint64(msg.Count), 10))

	switch {
	case !msg.Action.Is2D():
		writeAxis(&sb, engine, "y", msg.YType, msg.Y)
	case msg.Interleaved:
		writeAxis(&sb, engine, "xy", msg.XType, msg.X)
	default:
		writeAxis(&sb, engine, "x", msg.XType, msg.X)
		writeAxis(&sb, engine, "y", msg.YType, msg.Y)
	}

	return sb.String()
}

func writeAxis(sb *strings.Builder, engine endian.EndianEngine, name string, dt format.DataType, data []byte) {
	vals, err := sample.AsFloat64(engine, dt, data)
	if err != nil {
		fmt.Fprintf(sb, " %s=%s <%v>", name, dt, err)
		return
	}

	fmt.Fprintf(sb, " %s=%s[", name, dt)
	for i, v := range vals[:min(len(vals), maxShown)] {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', 6, 64))
	}
	if len(vals) > maxShown {
		fmt.Fprintf(sb, " ...%d more", len(vals)-maxShown)
	}
	sb.WriteByte(']')
}
