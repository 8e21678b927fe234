package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gocv.io/x/gocv"

	facesense "github.com/clinsight/go-facesense"
	"github.com/clinsight/go-facesense/config"
	"github.com/clinsight/go-facesense/render"
	"github.com/clinsight/go-facesense/session"
)

func main() {

	configFile := flag.String("c", "", "Optional YAML configuration file")
	landmarkModel := flag.String("m", "", "FaceMesh landmark model file, overrides config")
	emotionModel := flag.String("e", "", "Emotion classifier model file, overrides config")
	device := flag.Int("d", 0, "Camera device id to capture from")
	show := flag.Bool("w", false, "Show a window with the landmark and analysis overlay")
	ttfFont := flag.String("f", "", "Optional TTF font for the emotion label in the preview window")

	flag.Parse()

	cfg := config.Default()

	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)

		if err != nil {
			fmt.Println("Error loading config:", err)
			return
		}
	}

	if *landmarkModel != "" {
		cfg.Models.FaceMesh = *landmarkModel
	}

	if *emotionModel != "" {
		cfg.Models.Emotion = *emotionModel
	}

	log := config.NewLogger(os.Stderr, cfg.Pipeline.LogLevel)

	// load the model pair pool
	pool, err := facesense.NewPool(cfg.Pipeline.PoolSize, func() (*facesense.Models, error) {
		mesh, err := facesense.NewFaceMesh(cfg.Models.FaceMesh, facesense.DefaultFaceMeshParams())

		if err != nil {
			return nil, err
		}

		net, err := facesense.NewEmotionNet(cfg.Models.Emotion, facesense.DefaultEmotionNetParams())

		if err != nil {
			mesh.Close()
			return nil, err
		}

		return &facesense.Models{Extractor: mesh, Classifier: net}, nil
	})

	if err != nil {
		log.Error("error loading models", "error", err)
		return
	}

	defer pool.Close()

	cam, err := gocv.OpenVideoCapture(*device)

	if err != nil {
		log.Error("error opening camera", "device", *device, "error", err)
		return
	}

	defer cam.Close()

	var window *gocv.Window
	var tface *render.Typeface

	if *show {
		window = gocv.NewWindow("facesense")
		defer window.Close()

		if *ttfFont != "" {
			tface, err = render.NewTypeface(*ttfFont, 28)

			if err != nil {
				log.Error("error loading font", "error", err)
				return
			}

			defer tface.Close()
		}
	}

	pl := session.NewPipeline(cfg.Analysis, pool, pool, log)

	const id = "webcam"

	if err := pl.Start(id); err != nil {
		log.Error("error starting session", "error", err)
		return
	}

	// stop capturing on interrupt
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	img := gocv.NewMat()
	defer img.Close()

	interval := time.Duration(float64(time.Second) / cfg.Pipeline.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	font := render.DefaultFont()

	log.Info("capturing", "device", *device, "fps", cfg.Pipeline.FPS)

loop:
	for {
		select {
		case <-sig:
			break loop

		case <-ticker.C:
			if ok := cam.Read(&img); !ok || img.Empty() {
				continue
			}

			timestamp := time.Since(start).Seconds()

			fa, err := pl.ProcessFrame(id, img, timestamp)

			if err != nil {
				log.Error("error processing frame", "error", err)
				break loop
			}

			if fa.FaceDetected {
				log.Info("frame",
					"t", fmt.Sprintf("%.1fs", fa.Timestamp),
					"emotion", fa.Emotion.Dominant,
					"stress", fmt.Sprintf("%.2f", fa.Scores.Stress),
					"anxiety", fmt.Sprintf("%.2f", fa.Scores.Anxiety),
					"engagement", fmt.Sprintf("%.2f", fa.Scores.Engagement),
					"micro", len(fa.MicroExpressions),
				)
			} else {
				log.Debug("frame", "t", fmt.Sprintf("%.1fs", fa.Timestamp), "face", false)
			}

			if window != nil {
				if lm, err := pl.Landmarks(id); err == nil {
					render.FaceLandmarks(&img, lm, 1)
					render.FaceOutline(&img, lm, 1)
				}

				render.AnalysisOverlay(&img, fa, font)

				if tface != nil && fa.FaceDetected {
					label := fmt.Sprintf("%s %.2f",
						strings.ToUpper(string(fa.Emotion.Dominant)), fa.Emotion.Confidence)

					if err := tface.DrawText(&img, label, 10, img.Rows()-20,
						render.EmotionColor(fa.Emotion.Dominant)); err != nil {
						log.Warn("error drawing label", "error", err)
					}
				}

				window.IMShow(img)

				if window.WaitKey(1) == 'q' {
					break loop
				}
			}
		}
	}

	if err := pl.Stop(id); err != nil {
		log.Error("error stopping session", "error", err)
		return
	}

	sum, err := pl.Summary(id)

	if err != nil {
		log.Error("error building summary", "error", err)
		return
	}

	if sum == nil {
		log.Info("no face detected during session")
		return
	}

	out, err := json.MarshalIndent(sum, "", "  ")

	if err != nil {
		log.Error("error encoding summary", "error", err)
		return
	}

	fmt.Println(string(out))
}
