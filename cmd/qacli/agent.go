package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaengine"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaprotocol"
	"github.com/BimaPangestu28/greentic-qa/pkg/qastate"
)

// handleAgent runs the JSON-RPC agent mode loop on stdin/stdout: one
// request per line in, one response per line out. A host process can
// drive an entire wizard session this way without a terminal.
func handleAgent(engine *qaengine.Engine, checkpoints qastate.Store) error {
	handler := qaprotocol.NewHandler()
	registerFormMethods(handler, engine)
	registerCheckpointMethods(handler, engine, checkpoints)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	encoder := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		resp := handler.HandleRaw([]byte(line))
		if err := encoder.Encode(resp); err != nil {
			fmt.Fprintf(os.Stderr, "error encoding response: %v\n", err)
		}
	}
	return scanner.Err()
}

func registerFormMethods(h *qaprotocol.Handler, engine *qaengine.Engine) {
	h.Register(qaprotocol.MethodFormLoad, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.FormLoadParams](params)
		if perr != nil {
			return nil, perr
		}
		formID, warnings, err := engine.LoadForm(p.ConfigEnvelope)
		if err != nil {
			return nil, &qaprotocol.Error{Code: qaprotocol.CodeInternalError, Message: err.Error()}
		}
		warningMsgs := make([]string, len(warnings))
		for i, w := range warnings {
			warningMsgs[i] = w.Code + ": " + w.Message
		}
		return qaprotocol.FormLoadResult{FormID: formID, Warnings: warningMsgs}, nil
	})

	h.Register(qaprotocol.MethodFormGetSpec, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.FormRefParams](params)
		if perr != nil {
			return nil, perr
		}
		spec, err := engine.GetFormSpec(p.FormID)
		if err != nil {
			return nil, engineError(err)
		}
		return spec, nil
	})

	h.Register(qaprotocol.MethodFormGetAnswerSchema, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.FormRefParams](params)
		if perr != nil {
			return nil, perr
		}
		schema, err := engine.GetAnswerSchema(p.FormID, p.CtxEnvelope)
		if err != nil {
			return nil, engineError(err)
		}
		return schema, nil
	})

	h.Register(qaprotocol.MethodFormGetExamples, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.FormRefParams](params)
		if perr != nil {
			return nil, perr
		}
		examples, err := engine.GetExampleAnswers(p.FormID, p.CtxEnvelope)
		if err != nil {
			return nil, engineError(err)
		}
		return examples, nil
	})

	h.Register(qaprotocol.MethodAnswersValidate, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.AnswersParams](params)
		if perr != nil {
			return nil, perr
		}
		result, err := engine.ValidateAnswers(p.FormID, p.CtxEnvelope, p.Answers)
		if err != nil {
			return nil, engineError(err)
		}
		return result, nil
	})

	h.Register(qaprotocol.MethodPlanNext, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.AnswersParams](params)
		if perr != nil {
			return nil, perr
		}
		plan, err := engine.PlanNext(p.FormID, p.CtxEnvelope, p.Answers)
		if err != nil {
			return nil, engineError(err)
		}
		return plan, nil
	})

	h.Register(qaprotocol.MethodPlanSubmitPatch, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.SubmitPatchParams](params)
		if perr != nil {
			return nil, perr
		}
		plan, err := engine.PlanSubmitPatch(p.FormID, p.CtxEnvelope, p.Answers, p.QuestionID, p.Value)
		if err != nil {
			return nil, engineError(err)
		}
		return plan, nil
	})

	h.Register(qaprotocol.MethodPlanSubmitAll, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.AnswersParams](params)
		if perr != nil {
			return nil, perr
		}
		plan, err := engine.PlanSubmitAll(p.FormID, p.CtxEnvelope, p.Answers)
		if err != nil {
			return nil, engineError(err)
		}
		return plan, nil
	})

	h.Register(qaprotocol.MethodStoreApply, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.AnswersParams](params)
		if perr != nil {
			return nil, perr
		}
		ops, store, err := engine.ExecuteStore(p.FormID, p.CtxEnvelope, p.Answers)
		if err != nil {
			return nil, engineError(err)
		}
		return map[string]any{"ops": ops, "answers": store.Answers, "state": store.State, "config": store.Config, "payload_out": store.PayloadOut}, nil
	})

	h.Register(qaprotocol.MethodRender, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.RenderParams](params)
		if perr != nil {
			return nil, perr
		}
		out, err := engine.Render(p.FormID, p.CtxEnvelope, p.Answers, qaengine.RenderTarget(p.Target))
		if err != nil {
			return nil, engineError(err)
		}
		return out, nil
	})
}

func registerCheckpointMethods(h *qaprotocol.Handler, engine *qaengine.Engine, checkpoints qastate.Store) {
	h.Register(qaprotocol.MethodCheckpointSave, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.CheckpointSaveParams](params)
		if perr != nil {
			return nil, perr
		}
		if checkpoints == nil {
			return nil, &qaprotocol.Error{Code: qaprotocol.CodeInternalError, Message: "no checkpoint store configured"}
		}
		snap := qastate.Snapshot{FormID: p.FormID, StateToken: p.StateToken, Answers: p.Answers}
		if err := checkpoints.Save(p.FormID, p.Name, snap); err != nil {
			return nil, &qaprotocol.Error{Code: qaprotocol.CodeInternalError, Message: err.Error()}
		}
		return map[string]any{"saved": p.Name}, nil
	})

	h.Register(qaprotocol.MethodCheckpointRestore, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.CheckpointParams](params)
		if perr != nil {
			return nil, perr
		}
		if checkpoints == nil {
			return nil, &qaprotocol.Error{Code: qaprotocol.CodeInternalError, Message: "no checkpoint store configured"}
		}
		snap, err := checkpoints.Restore(p.FormID, p.Name)
		if err != nil {
			return nil, &qaprotocol.Error{Code: qaprotocol.CodeInternalError, Message: err.Error()}
		}
		return snap, nil
	})

	h.Register(qaprotocol.MethodCheckpointList, func(params json.RawMessage) (any, *qaprotocol.Error) {
		p, perr := qaprotocol.ParseParams[qaprotocol.CheckpointListParams](params)
		if perr != nil {
			return nil, perr
		}
		if checkpoints == nil {
			return []qastate.CheckpointInfo{}, nil
		}
		infos, err := checkpoints.List(p.FormID)
		if err != nil {
			return nil, &qaprotocol.Error{Code: qaprotocol.CodeInternalError, Message: err.Error()}
		}
		return infos, nil
	})
}

func engineError(err error) *qaprotocol.Error {
	if e, ok := err.(*qaengine.Error); ok {
		return &qaprotocol.Error{Code: codeForEngineError(e.Code), Message: e.Message}
	}
	return &qaprotocol.Error{Code: qaprotocol.CodeInternalError, Message: err.Error()}
}

func codeForEngineError(code qaengine.ErrorCode) int {
	switch code {
	case qaengine.ErrUnknownForm:
		return qaprotocol.CodeUnknownForm
	case qaengine.ErrUnknownQuestion:
		return qaprotocol.CodeUnknownQuestion
	case qaengine.ErrInvalidPatch:
		return qaprotocol.CodeInvalidPatch
	case qaengine.ErrPlanStale:
		return qaprotocol.CodePlanStale
	default:
		return qaprotocol.CodeInternalError
	}
}
