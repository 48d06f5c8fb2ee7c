package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// convertAudio transcodes src into a temporary single-channel Opus file at
// the given sample rate, matching the recognition config. The caller must
// remove the returned file; on error nothing is left behind.
func convertAudio(ctx context.Context, ffmpegPath, src string, sampleRate int) (string, error) {
	out := filepath.Join(os.TempDir(), "contas-audio-"+uuid.NewString()+".ogg")

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-y",
		"-i", src,
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "libopus",
		out,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		os.Remove(out)
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: audio conversion timed out: %v", ErrTranscription, ctx.Err())
		}
		return "", fmt.Errorf("%w: cannot decode audio: %v: %s", ErrTranscription, err, output)
	}
	return out, nil
}
