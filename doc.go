package jsondecode

// Package jsondecode decodes JSON into typed values by compiling type
// descriptors into provider programs:
//
// - A descriptor (typedesc) is compiled once into a program of providers, one per canonical key
// - Programs are persisted in a cache.Store under a content-derived key and reused across processes
// - Providers read only the byte windows they need, from memory or from seekable streams
// - Objects are built through an instantiator; property values pass through registered transformers
//
// Design policy:
// - Keep only the public API in the root package; put compiler and providers under internal/.
// - Errors are *errors.Error values carrying a Kind, the descriptor key and a document path.
// - The CLI lives under cmd/jsondecode.
//
// Typical usage:
//
//  in := instantiator.New()
//  in.MustRegister("Order", Order{})
//  d := jsondecode.New(jsondecode.WithInstantiator(in), jsondecode.WithStore(cache.NewFileStore(dir)))
//  order, err := jsondecode.DecodeAs[*Order](ctx, d, data, orderType, nil)
