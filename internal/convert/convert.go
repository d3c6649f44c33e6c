package convert

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Zuo-Peng/df2lex/internal/lex"
)

// RowSource is a sheet addressed by 1-based row and column.
type RowSource interface {
	MaxRow() int
	Cell(row, col int) (string, error)
}

// Sink receives one serialized intent per emitted block.
type Sink interface {
	Write(name string, data []byte) error
}

type Options struct {
	Prefix string
	// HeaderRows is the number of leading rows that are not data.
	HeaderRows int
	// FlushTrailing emits a block still open when the sheet ends. When
	// false the block is dropped and counted in Stats.Dropped.
	FlushTrailing bool
	// Strict aborts on malformed names and schema violations instead of
	// skipping the block.
	Strict   bool
	Validate bool
	Logger   *zap.Logger
}

// Convert groups the rows of src into intents and writes each one to sink.
// On error the returned Result still describes everything emitted so far.
func Convert(src RowSource, sink Sink, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	first := opts.HeaderRows + 1
	if first < 1 {
		first = 1
	}

	c := &converter{
		sink: sink,
		opts: opts,
		log:  log,
		seen: make(map[string]int),
		res:  &Result{},
	}

	var st State
	for i := first; i <= src.MaxRow(); i++ {
		row, err := readRow(src, i)
		if err != nil {
			return c.res, err
		}
		c.res.Stats.Rows++

		next, done, err := Step(st, row, opts.Prefix)
		st = next
		if err != nil {
			if err := c.skip(err); err != nil {
				return c.res, err
			}
			continue
		}
		if done != nil {
			if err := c.emit(done); err != nil {
				return c.res, err
			}
		}
	}

	if b := Flush(st); b != nil {
		if !opts.FlushTrailing {
			c.res.Stats.Dropped++
			log.Warn("dropping intent not followed by a blank row",
				zap.String("intent", b.Name()),
				zap.Int("row", b.FirstRow))
			return c.res, nil
		}
		if err := c.emit(b); err != nil {
			return c.res, err
		}
	}

	return c.res, nil
}

type converter struct {
	sink Sink
	opts Options
	log  *zap.Logger
	seen map[string]int
	res  *Result
}

func (c *converter) emit(b *Block) error {
	name := b.Name()
	if firstRow, ok := c.seen[name]; ok {
		return &DuplicateNameError{Name: name, Row: b.FirstRow, FirstRow: firstRow}
	}

	doc, err := lex.Marshal(b.Intent)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	if c.opts.Validate {
		if err := lex.Validate(name, doc); err != nil {
			return c.skip(err)
		}
	}

	if err := c.sink.Write(b.Intent.FileName(), doc); err != nil {
		return fmt.Errorf("write %s: %w", b.Intent.FileName(), err)
	}
	c.seen[name] = b.FirstRow

	c.res.Blocks = append(c.res.Blocks, b)
	c.res.Stats.Intents++
	c.res.Stats.Utterances += len(b.Intent.SampleUtterances)
	c.res.Stats.Messages += len(b.Intent.ConclusionStatement.Messages)

	c.log.Debug("intent emitted",
		zap.String("intent", name),
		zap.String("raw_name", b.RawName),
		zap.Int("first_row", b.FirstRow),
		zap.Int("last_row", b.LastRow))
	return nil
}

// skip records a per-block error, or returns it in strict mode.
func (c *converter) skip(err error) error {
	var me *lex.MalformedNameError
	var se *lex.SchemaError
	switch {
	case errors.As(err, &me):
		if c.opts.Strict {
			return err
		}
		c.log.Warn("skipping block with malformed intent name",
			zap.Int("row", me.Row),
			zap.String("raw_name", me.Raw))
	case errors.As(err, &se):
		if c.opts.Strict {
			return err
		}
		c.log.Warn("skipping intent that fails schema validation",
			zap.String("intent", se.Name),
			zap.Strings("problems", se.Problems))
	default:
		return err
	}
	c.res.Stats.Skipped++
	c.res.Problems = append(c.res.Problems, err)
	return nil
}

func readRow(src RowSource, i int) (Row, error) {
	var cells [ColResponse]string
	for col := ColName; col <= ColResponse; col++ {
		v, err := src.Cell(i, col)
		if err != nil {
			return Row{}, &SourceReadError{Row: i, Col: col, Err: err}
		}
		cells[col-1] = v
	}
	return Row{
		Index:     i,
		Name:      cells[ColName-1],
		Utterance: cells[ColUtterance-1],
		Response:  cells[ColResponse-1],
	}, nil
}
