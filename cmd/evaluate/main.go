// Command evaluate measures how a detector holds up in fog: it runs a model on
// sampled clear and foggy Cityscapes images and writes annotated images, an
// image-wise IoU report and a chart.
package main

import (
	"fmt"
	"os"

	"github.com/nvr-ai/go-eval/logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger, lerr := logging.NewLogger("evaluate", "error")
		if lerr != nil {
			fmt.Fprintln(os.Stderr, err)
		} else {
			logger.Errorw("evaluation failed", "error", err)
			_ = logger.Sync()
		}
		os.Exit(1)
	}
}
