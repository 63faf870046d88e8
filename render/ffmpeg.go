package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/drewmudry/chatshorts-api/conversation"
	"github.com/drewmudry/chatshorts-api/timeline"
	log "github.com/sirupsen/logrus"
)

// CommandRunner runs an external command to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// FFmpegRenderer renders one clip per cue with ffmpeg and concatenates
// them into the final MP4, which is handed to the asset store.
type FFmpegRenderer struct {
	FFmpegPath string
	Width      int
	Height     int
	Timeout    time.Duration
	WorkDir    string
	FontFile   string

	// Timeline sizing; DefaultAvatars is taken from the render props.
	Timeline timeline.Options

	Store conversation.AssetStore
	Run   CommandRunner

	// Local, when set, lets ffmpeg open stored assets from disk instead of
	// fetching them by URL.
	Local LocalResolver
}

// LocalResolver maps an asset URL to a local file.
type LocalResolver interface {
	LocalPath(url string) (string, bool)
}

// NewFFmpegRenderer creates a renderer that executes ffmpeg directly.
func NewFFmpegRenderer(ffmpegPath string, width, height int, timeout time.Duration, workDir string, opts timeline.Options, store conversation.AssetStore) *FFmpegRenderer {
	r := &FFmpegRenderer{
		FFmpegPath: ffmpegPath,
		Width:      width,
		Height:     height,
		Timeout:    timeout,
		WorkDir:    workDir,
		Timeline:   opts,
		Store:      store,
		Run:        execCommand,
	}
	if local, ok := store.(LocalResolver); ok {
		r.Local = local
	}
	return r
}

// input returns the local file for src when the asset store has one.
func (r *FFmpegRenderer) input(src string) string {
	if r.Local != nil {
		if path, ok := r.Local.LocalPath(src); ok {
			return path
		}
	}
	return src
}

func execCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(stderr.String(), 512))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Render builds the timeline for props and encodes it.
func (r *FFmpegRenderer) Render(ctx context.Context, compositionID string, props Props) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	opts := r.Timeline
	opts.DefaultAvatars = props.SpeakerDefaultAvatars
	tl := timeline.Build(props.Cues, opts)

	if err := os.MkdirAll(r.WorkDir, 0o755); err != nil {
		return "", r.fail(ctx, compositionID, "workdir", err)
	}
	dir, err := os.MkdirTemp(r.WorkDir, "render-"+compositionID+"-")
	if err != nil {
		return "", r.fail(ctx, compositionID, "workdir", err)
	}
	defer os.RemoveAll(dir)

	log.Printf("[render] Rendering %s: %d cues, %d frames", compositionID, len(tl.Cues()), tl.TotalFrames())

	segments := tl.Segments()
	var list []string
	for _, seg := range segments {
		out := filepath.Join(dir, fmt.Sprintf("segment_%03d.mp4", seg.CueIndex))
		args := r.segmentArgs(tl, seg, props.BackgroundImage, out)
		if err := r.Run(ctx, r.FFmpegPath, args...); err != nil {
			return "", r.fail(ctx, compositionID, fmt.Sprintf("segment %d", seg.CueIndex), err)
		}
		list = append(list, fmt.Sprintf("file '%s'", out))
	}

	listFile := filepath.Join(dir, "segments.txt")
	if err := os.WriteFile(listFile, []byte(strings.Join(list, "\n")+"\n"), 0o644); err != nil {
		return "", r.fail(ctx, compositionID, "concat list", err)
	}

	final := filepath.Join(dir, "final.mp4")
	if err := r.Run(ctx, r.FFmpegPath, concatArgs(listFile, final)...); err != nil {
		return "", r.fail(ctx, compositionID, "concat", err)
	}

	data, err := os.ReadFile(final)
	if err != nil {
		return "", r.fail(ctx, compositionID, "read output", err)
	}

	url, err := r.Store.Store(ctx, fmt.Sprintf("videos/%s.mp4", compositionID), data, "video/mp4")
	if err != nil {
		return "", r.fail(ctx, compositionID, "store", err)
	}

	log.Printf("[render] Video ready for %s: %s", compositionID, url)
	return url, nil
}

func (r *FFmpegRenderer) fail(ctx context.Context, compositionID, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		op = "timeout during " + op
	}
	return &RenderError{CompositionID: compositionID, Op: op, Err: err}
}

// segmentArgs renders one cue window: background, both avatars, the
// caption and the cue's audio padded or cut to the slot length.
func (r *FFmpegRenderer) segmentArgs(tl *timeline.Timeline, seg timeline.Segment, background, out string) []string {
	fps := strconv.Itoa(tl.FPS())
	frames := seg.Frames()
	seconds := strconv.FormatFloat(float64(frames)/float64(tl.FPS()), 'f', 3, 64)

	avatarSize := r.Width * 2 / 5
	idleSize := avatarSize * 17 / 20
	margin := r.Width / 20
	y := r.Height * 3 / 5

	var args []string
	args = append(args, "-y")
	args = append(args, imageInput(r.input(background), r.Width, r.Height, fps)...)
	for _, role := range conversation.Roles {
		args = append(args, imageInput(r.input(seg.State.Avatars[role]), avatarSize, avatarSize, fps)...)
	}

	cue := seg.State.Cue
	if cue.HasAudio() {
		args = append(args, "-i", r.input(*cue.AudioURL))
	} else {
		args = append(args, "-f", "lavfi", "-i", "anullsrc=r=44100:cl=stereo")
	}

	sizes := map[conversation.Role]int{conversation.RoleA: idleSize, conversation.RoleB: idleSize}
	sizes[cue.Speaker] = avatarSize

	filter := fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1[bg];"+
			"[1:v]scale=%d:-1[a];[2:v]scale=%d:-1[b];"+
			"[bg][a]overlay=x=%d:y=%d[t1];"+
			"[t1][b]overlay=x=W-w-%d:y=%d[t2];"+
			"[t2]%s[v];"+
			"[3:a]apad[aout]",
		r.Width, r.Height, r.Width, r.Height,
		sizes[conversation.RoleA], sizes[conversation.RoleB],
		margin, y,
		margin, y,
		r.drawtext(cue.Text),
	)

	args = append(args,
		"-filter_complex", filter,
		"-map", "[v]",
		"-map", "[aout]",
		"-frames:v", strconv.Itoa(frames),
		"-t", seconds,
		"-r", fps,
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-ar", "44100",
		"-ac", "2",
		out,
	)
	return args
}

// imageInput loops a still image as a video input. A missing image becomes
// a flat placeholder so a segment never lacks an input.
func imageInput(src string, w, h int, fps string) []string {
	if src == "" {
		return []string{"-f", "lavfi", "-i", fmt.Sprintf("color=c=gray:s=%dx%d:r=%s", w, h, fps)}
	}
	return []string{"-loop", "1", "-framerate", fps, "-i", src}
}

func (r *FFmpegRenderer) drawtext(text string) string {
	parts := []string{
		"drawtext=text='" + escapeDrawtext(text) + "'",
		"fontcolor=white",
		fmt.Sprintf("fontsize=%d", r.Width/18),
		"x=(w-text_w)/2",
		"y=h*0.2",
		"box=1",
		"boxcolor=black@0.5",
		"boxborderw=20",
	}
	if r.FontFile != "" {
		parts = append(parts, "fontfile='"+escapeDrawtext(r.FontFile)+"'")
	}
	return strings.Join(parts, ":")
}

var drawtextEscaper = strings.NewReplacer(
	`\`, `\\\\`,
	`'`, `'\\\''`,
	`:`, `\:`,
	`%`, `\%`,
	"\n", " ",
)

func escapeDrawtext(s string) string {
	return drawtextEscaper.Replace(s)
}

func concatArgs(listFile, out string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		"-movflags", "+faststart",
		out,
	}
}
