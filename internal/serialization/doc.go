// Package serialization saves and loads named float32 tensors in the
// SafeTensors format, the standard checkpoint format for HuggingFace models.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor name -> {dtype, shape, data_offsets}]
//	  [Tensor data: raw little-endian bytes]
//
// Tensors are written in alphabetical order by name. An optional
// "__metadata__" entry carries string key/value pairs.
//
// Example usage:
//
//	// Save a model
//	err := serialization.WriteSafeTensors("model.safetensors", model.StateDict(),
//	    map[string]string{"optimizer": "Adam"})
//
//	// Load a model
//	stateDict, metadata, err := serialization.ReadSafeTensors("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = model.LoadStateDict(stateDict)
package serialization
