// Package factory instantiates pluggable modules (metrics sinks, event log
// stores) from configuration. A module is described by a type name and a map
// of raw settings; the registered factory decodes the settings with Decode
// and returns the implementation.
//
//	reg := factory.NewRegistry[eventlog.Store]()
//	_ = reg.Register("sqlite", func(conf map[string]any) (eventlog.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return eventlog.NewSQLiteStore(c.Path)
//	})
//	store, err := reg.Create(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": "events.db"}})
package factory
