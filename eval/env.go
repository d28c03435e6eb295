package eval

// EnvID addresses an environment in the interpreter's arena.
type EnvID int

const noEnv EnvID = -1

type envRecord struct {
	vars   map[string]Value
	parent EnvID
}

// newEnv appends an empty environment whose lookups fall through to parent.
func (in *Interpreter) newEnv(parent EnvID) EnvID {
	in.envs = append(in.envs, envRecord{vars: make(map[string]Value), parent: parent})
	return EnvID(len(in.envs) - 1)
}

// set binds name in env itself, replacing any earlier binding there.
func (in *Interpreter) set(env EnvID, name string, v Value) {
	in.envs[env].vars[name] = v
}

func (in *Interpreter) get(env EnvID, name string) (Value, bool) {
	for env != noEnv {
		rec := &in.envs[env]
		if v, ok := rec.vars[name]; ok {
			return v, true
		}
		env = rec.parent
	}
	return nil, false
}
