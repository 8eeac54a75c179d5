package script

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Apply decodes raw method parameters onto the defaults for t and
// invokes the matching builder. Unknown keys are rejected so typos in
// a job file fail before anything runs.
func (st *Stage) Apply(t Type, raw map[string]any) error {
	switch t {
	case Initialization:
		p := DefaultInitializationParams()
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return st.Initialization(p)
	case Minimization:
		p := DefaultMinimizationParams()
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return st.Minimization(p)
	case Velocities:
		p := DefaultVelocitiesParams()
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return st.Velocities(p)
	case NVT:
		p := DefaultNVTParams()
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return st.NVT(p)
	case NPT:
		p := DefaultNPTParams()
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return st.NPT(p)
	case NVE:
		p := DefaultNVEParams()
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return st.NVE(p)
	case UniaxialDeformation:
		p := DefaultDeformationParams()
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return st.UniaxialDeformation(p)
	}
	return fmt.Errorf("%w %d", ErrUnknownType, int(t))
}

func decodeParams(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("script: decoding parameters: %w", err)
	}
	return nil
}
