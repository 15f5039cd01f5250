package kokoro

import (
	"context"
	"fmt"

	ort "github.com/shota3506/onnxruntime-purego/onnxruntime"
)

// Graph input and output names of the Kokoro ONNX export.
const (
	inputIDs   = "input_ids"
	inputStyle = "style"
	inputSpeed = "speed"
	outputWave = "waveform"
)

// session owns the ORT runtime, environment, and one loaded graph.
type session struct {
	rt   *ort.Runtime
	env  *ort.Env
	sess *ort.Session
}

func newSession(modelPath string) (*session, error) {
	rt, err := ort.NewRuntime(ortLibraryPath(), ortAPIVersion)
	if err != nil {
		return nil, fmt.Errorf("ort runtime: %w", err)
	}

	env, err := rt.NewEnv("kokorotts", ort.LoggingLevelWarning)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("ort env: %w", err)
	}

	sess, err := rt.NewSession(env, modelPath, nil)
	if err != nil {
		env.Close()
		_ = rt.Close()
		return nil, fmt.Errorf("ort session for %s: %w", modelPath, err)
	}

	return &session{rt: rt, env: env, sess: sess}, nil
}

// run executes one synthesis pass.
func (s *session) run(ctx context.Context, ids []int64, style []float32, speed float32) ([]float32, error) {
	idsVal, err := ort.NewTensorValue(s.rt, ids, []int64{1, int64(len(ids))})
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer idsVal.Close()

	styleVal, err := ort.NewTensorValue(s.rt, style, []int64{1, int64(len(style))})
	if err != nil {
		return nil, fmt.Errorf("style tensor: %w", err)
	}
	defer styleVal.Close()

	speedVal, err := ort.NewTensorValue(s.rt, []float32{speed}, []int64{1})
	if err != nil {
		return nil, fmt.Errorf("speed tensor: %w", err)
	}
	defer speedVal.Close()

	outputs, err := s.sess.Run(ctx, map[string]*ort.Value{
		inputIDs:   idsVal,
		inputStyle: styleVal,
		inputSpeed: speedVal,
	})
	if err != nil {
		return nil, fmt.Errorf("run graph: %w", err)
	}
	defer func() {
		for _, v := range outputs {
			if v != nil {
				v.Close()
			}
		}
	}()

	wave, ok := outputs[outputWave]
	if !ok {
		return nil, fmt.Errorf("graph produced no %q output", outputWave)
	}
	data, _, err := ort.GetTensorData[float32](wave)
	if err != nil {
		return nil, fmt.Errorf("read waveform: %w", err)
	}

	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

func (s *session) close() {
	if s.sess != nil {
		s.sess.Close()
		s.sess = nil
	}
	if s.env != nil {
		s.env.Close()
		s.env = nil
	}
	if s.rt != nil {
		_ = s.rt.Close()
		s.rt = nil
	}
}
