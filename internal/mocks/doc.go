// Package mocks provides testify/mock implementations of the store and
// runner interfaces, for tests that need to script failures the real
// implementations cannot produce.
//
// Expectations are set with the usual testify calls:
//
//	jobs := new(mocks.JobStore)
//	jobs.On("GetByID", mock.Anything, id).Return(nil, store.ErrJobNotFound)
package mocks
