// Command lazytrain trains a small embedding regression model and reports how
// much embedding write traffic lazy (row-masked) updates avoid.
//
// Usage:
//
//	lazytrain -optimizer adam -steps 500 -batch 16 -dim 32
//	lazytrain -tokenizer cl100k_base -corpus README.md -db runs.db
//	lazytrain -lazy=false   # dense baseline
//	lazytrain -save model.safetensors
//	lazytrain -load model.safetensors -steps 100
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/born-ml/lazyopt/internal/graph"
	"github.com/born-ml/lazyopt/internal/nn"
	"github.com/born-ml/lazyopt/internal/optim"
	"github.com/born-ml/lazyopt/internal/runlog"
	"github.com/born-ml/lazyopt/internal/serialization"
	"github.com/born-ml/lazyopt/internal/tensor"
	"github.com/born-ml/lazyopt/internal/tokenizer"
)

const defaultCorpus = `Embedding tables map every token of a vocabulary to a learned vector.
In a single batch only a handful of tokens appear, so only a handful of rows
receive a gradient. A dense optimizer still rewrites every row of the table on
every step, moving rows the batch never saw and spending memory bandwidth on
them. A lazy optimizer masks the learning rate row by row and leaves unseen rows
alone, which keeps rare tokens stable and makes each step cheaper.`

type options struct {
	optimizer string
	lr        float64
	momentum  float64
	steps     int
	batch     int
	dim       int
	tokenizer string
	corpus    string
	db        string
	save      string
	load      string
	lazy      bool
	seed      int64
	logEvery  int
}

func main() {
	var opts options
	flag.StringVar(&opts.optimizer, "optimizer", "adam", "base optimizer: sgd, adam or adagrad")
	flag.Float64Var(&opts.lr, "lr", 0, "learning rate (0 uses the optimizer default)")
	flag.Float64Var(&opts.momentum, "momentum", 0, "SGD momentum")
	flag.IntVar(&opts.steps, "steps", 300, "training steps")
	flag.IntVar(&opts.batch, "batch", 8, "tokens per batch")
	flag.IntVar(&opts.dim, "dim", 16, "embedding dimension")
	flag.StringVar(&opts.tokenizer, "tokenizer", "whitespace", "whitespace, cl100k_base, p50k_base or r50k_base")
	flag.StringVar(&opts.corpus, "corpus", "", "training text file (default: built-in paragraph)")
	flag.StringVar(&opts.db, "db", "", "SQLite file to record the run in")
	flag.StringVar(&opts.save, "save", "", "write the trained parameters to this SafeTensors file")
	flag.StringVar(&opts.load, "load", "", "start from parameters in this SafeTensors file")
	flag.BoolVar(&opts.lazy, "lazy", true, "update embedding rows lazily")
	flag.Int64Var(&opts.seed, "seed", 1, "random seed")
	flag.IntVar(&opts.logEvery, "log-every", 50, "log every n steps")
	flag.Parse()

	if err := run(context.Background(), opts); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts options) error {
	text := defaultCorpus
	if opts.corpus != "" {
		data, err := os.ReadFile(opts.corpus)
		if err != nil {
			return fmt.Errorf("read corpus: %w", err)
		}
		text = string(data)
	}

	tok, err := tokenizer.New(opts.tokenizer, text)
	if err != nil {
		return err
	}
	ids, err := tok.Encode(text)
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("corpus %q has no tokens", opts.corpus)
	}
	log.Printf("Tokenizer %s: %d tokens, vocabulary %s", tok.Name(), len(ids), humanize.Comma(int64(tok.VocabSize())))

	//nolint:gosec // math/rand is appropriate for batch sampling and init
	rng := rand.New(rand.NewSource(opts.seed))
	embed := nn.NewEmbedding(tok.VocabSize(), opts.dim, rng)
	model := nn.NewSequential(embed, nn.NewTanh(), nn.NewLinear(opts.dim, 1, rng))
	if opts.load != "" {
		state, metadata, err := serialization.ReadSafeTensors(opts.load)
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		if err := model.LoadStateDict(state); err != nil {
			return fmt.Errorf("load checkpoint %s: %w", opts.load, err)
		}
		log.Printf("Loaded %s (run %s)", opts.load, metadata["run_id"])
	}

	g := graph.New("lazytrain")
	input := g.Placeholder("ids", tensor.Shape{opts.batch})
	target := g.Placeholder("target", tensor.Shape{opts.batch, 1})
	loss := nn.MSELoss(model.Forward(input), target)

	base, err := newBase(opts)
	if err != nil {
		return err
	}
	var opt optim.Optimizer = base
	var lazy *optim.Lazy
	if opts.lazy {
		lazy = optim.NewLazy(base, optim.LazyConfig{Embeddings: []nn.Trainable{embed}})
		opt = lazy
	}

	updates, err := opt.Updates(loss, model.Parameters())
	if err != nil {
		return fmt.Errorf("build updates: %w", err)
	}
	fetches := []*graph.Node{loss}
	if lazy != nil {
		fetches = append(fetches, lazy.ActivityMasks()[embed.Weight.ID()])
	}

	var store *runlog.Store
	runID := uuid.New()
	if opts.db != "" {
		store = runlog.NewStore(opts.db)
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("open run log: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close run log: %v", err)
			}
		}()
		runID, err = store.StartRun(ctx, runlog.Run{
			ID:        runID,
			Optimizer: fmt.Sprint(opt.Config()["name"]),
			Lazy:      opts.lazy,
			Config:    opt.Config(),
		})
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}
	log.Printf("Run %s: %s, lazy=%v, lr=%g", runID, opt.Config()["name"], opts.lazy, opt.LearningRate())

	sess := graph.NewSession(g)
	rowBytes := int64(opts.dim) * int64(tensor.Float32.Size())
	var skipped int64
	var first, last float32

	for step := 1; step <= opts.steps; step++ {
		feeds := sampleBatch(rng, ids, input, target, opts.batch)
		out, err := sess.Step(feeds, updates, fetches...)
		if err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}

		last = out[0].Item()
		if step == 1 {
			first = last
		}
		active := embed.NumEmbed
		if lazy != nil {
			active = countActive(out[1])
		}
		stepSkipped := int64(embed.NumEmbed-active) * rowBytes
		skipped += stepSkipped

		if store != nil {
			err := store.RecordStep(ctx, runID, runlog.Step{
				Step:         step,
				Loss:         float64(last),
				ActiveRows:   active,
				TotalRows:    embed.NumEmbed,
				SkippedBytes: stepSkipped,
			})
			if err != nil {
				return fmt.Errorf("record step %d: %w", step, err)
			}
		}
		if opts.logEvery > 0 && step%opts.logEvery == 0 {
			log.Printf("Step %4d: loss=%.5f active rows=%d/%d", step, last, active, embed.NumEmbed)
		}
	}

	log.Printf("Loss %.5f -> %.5f over %d steps", first, last, opts.steps)
	log.Printf("Embedding writes skipped: %s of %s",
		humanize.Bytes(uint64(skipped)), //nolint:gosec // G115: skipped is never negative.
		humanize.Bytes(uint64(int64(opts.steps)*int64(embed.NumEmbed)*rowBytes))) //nolint:gosec // G115: positive sizes.

	if opts.save != "" {
		err := serialization.WriteSafeTensors(opts.save, model.StateDict(), map[string]string{
			"run_id":    runID.String(),
			"optimizer": fmt.Sprint(opt.Config()["name"]),
			"tokenizer": tok.Name(),
		})
		if err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		log.Printf("Saved parameters to %s", opts.save)
	}
	return nil
}

func newBase(opts options) (optim.Optimizer, error) {
	lr := float32(opts.lr)
	switch strings.ToLower(opts.optimizer) {
	case "sgd":
		return optim.NewSGD(optim.SGDConfig{LR: lr, Momentum: float32(opts.momentum)}), nil
	case "adam":
		return optim.NewAdam(optim.AdamConfig{LR: lr}), nil
	case "adagrad":
		return optim.NewAdagrad(optim.AdagradConfig{LR: lr}), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", opts.optimizer)
	}
}

// sampleBatch draws batch random tokens; each token's target is a fixed
// function of its ID, so the model has to memorize one value per row.
func sampleBatch(rng *rand.Rand, ids []int32, input, target *graph.Node, batch int) graph.Feeds {
	x := tensor.Zeros[float32](tensor.Shape{batch})
	y := tensor.Zeros[float32](tensor.Shape{batch, 1})
	for i := 0; i < batch; i++ {
		id := ids[rng.Intn(len(ids))]
		x.Data()[i] = float32(id)
		y.Data()[i] = float32(math.Sin(float64(id) * 0.7))
	}
	return graph.Feeds{input: x, target: y}
}

func countActive(mask *tensor.Tensor[float32]) int {
	n := 0
	for _, v := range mask.Data() {
		if v != 0 {
			n++
		}
	}
	return n
}
