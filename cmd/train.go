package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jamesr66a/translate/internal/corpus"
	"github.com/jamesr66a/translate/internal/logger"
	"github.com/jamesr66a/translate/internal/morphology"
	"github.com/jamesr66a/translate/internal/store"
)

type trainFlags struct {
	trainFile      string
	modelPath      string
	iterations     int
	workers        int
	smoothConst    float64
	maxMorphLen    int
	hardEM         bool
	normalInit     bool
	normalMean     float64
	normalStddev   float64
	seed           uint64
	morphLikeness  bool
	perpThreshold  float64
	perpSlope      float64
	lenThreshold   float64
	lenSlope       float64
	saveCheckpoint bool
}

var trainOpts trainFlags

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a segmentation model on a raw text corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		wordCounts, err := corpus.LoadWordCounts(trainOpts.trainFile)
		if err != nil {
			return err
		}
		logger.Info("number of training words: %d", len(wordCounts))

		cfg := morphology.Config{
			SmoothingConst:   trainOpts.smoothConst,
			MaxMorphLen:      trainOpts.maxMorphLen,
			UseNormalInit:    trainOpts.normalInit,
			NormalMean:       trainOpts.normalMean,
			NormalStddev:     trainOpts.normalStddev,
			Seed:             trainOpts.seed,
			UseMorphLikeness: trainOpts.morphLikeness,
			Likeness: morphology.LikenessConfig{
				PerplexityThreshold: trainOpts.perpThreshold,
				PerplexitySlope:     trainOpts.perpSlope,
				LengthThreshold:     trainOpts.lenThreshold,
				LengthSlope:         trainOpts.lenSlope,
			},
		}
		params := morphology.NewParams(wordCounts, cfg)

		bar := progressbar.New(trainOpts.iterations)
		opts := []morphology.TrainerOption{
			morphology.WithProgress(func(iteration, total int) {
				bar.Add(1)
			}),
		}
		if trainOpts.hardEM {
			opts = append(opts, morphology.WithHardEM())
		}
		if trainOpts.saveCheckpoint {
			opts = append(opts, morphology.WithCheckpoint(func(p *morphology.Params, iteration int) error {
				logger.Debug("checkpointing model after iteration %d", iteration)
				return store.Save(trainOpts.modelPath, p)
			}))
		}

		trainer := morphology.NewTrainer(params, trainOpts.workers, opts...)
		if err := trainer.Train(cmd.Context(), trainOpts.iterations); err != nil {
			return fmt.Errorf("training failed: %w", err)
		}

		if err := store.Save(trainOpts.modelPath, params); err != nil {
			return fmt.Errorf("saving model: %w", err)
		}
		logger.Info("model saved to %s", trainOpts.modelPath)
		return nil
	},
}

func init() {
	f := trainCmd.Flags()
	f.StringVar(&trainOpts.trainFile, "train-file", "", "raw text as training data")
	f.StringVar(&trainOpts.modelPath, "model", "", "path to write the model file")
	f.IntVar(&trainOpts.iterations, "iter", 30, "number of EM training epochs")
	f.IntVar(&trainOpts.workers, "workers", 10, "number of parallel workers for the E-step")
	f.Float64Var(&trainOpts.smoothConst, "smooth-const", 2, "additive smoothing constant")
	f.IntVar(&trainOpts.maxMorphLen, "max-morph-len", 8, "maximum length of a candidate morpheme")
	f.BoolVar(&trainOpts.hardEM, "hard-em", false, "use Viterbi counts instead of the full posterior in the E-step")
	f.BoolVar(&trainOpts.normalInit, "normal-init", false, "initialize parameters with samples from a normal distribution")
	f.Float64Var(&trainOpts.normalMean, "normal-mean", 2, "mean for the normal distribution in initialization")
	f.Float64Var(&trainOpts.normalStddev, "normal-stddev", 1, "standard deviation for the normal distribution in initialization")
	f.Uint64Var(&trainOpts.seed, "seed", 0, "random seed for normal initialization")
	f.BoolVar(&trainOpts.morphLikeness, "morph-likeness", true, "bias initialization by perplexity-based morph likeness")
	f.Float64Var(&trainOpts.perpThreshold, "perplexity-threshold", 10, "perplexity threshold in the affix likeness curve")
	f.Float64Var(&trainOpts.perpSlope, "perplexity-slope", 1, "perplexity slope in the affix likeness curve")
	f.Float64Var(&trainOpts.lenThreshold, "length-threshold", 3, "length threshold in the stem likeness curve")
	f.Float64Var(&trainOpts.lenSlope, "length-slope", 2, "length slope in the stem likeness curve")
	f.BoolVar(&trainOpts.saveCheckpoint, "save-checkpoint", false, "persist the model after every EM iteration")
	trainCmd.MarkFlagRequired("train-file")
	trainCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(trainCmd)
}
