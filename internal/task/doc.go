// Package task models the delivery obligations players fulfil for currency.
//
// Two variants implement Task: SingleTask (one material, amount, reward and
// client) and CompositeTask (an ordered group of single tasks for one
// destination, whose reward is the sum of its children). Tasks are immutable
// values compared structurally, and they round-trip through a compact line
// grammar that is stored inside the serialized player accounts:
//
//	singletask@WHEAT,2,Grano,14.0,Tom
//	multitask#singletask@WHEAT,2,Grano,14.0,Tom;singletask@APPLE,1,Mela,3.0,Bob;:Chiesa
package task
