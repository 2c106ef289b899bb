// Package keylock serializa operações sobre a mesma chave (productID)
// sem bloquear chaves diferentes.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex mantém um mutex por chave ativa. Entradas sem uso são removidas.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int]*entry
}

// New cria um KeyedMutex vazio.
func New() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int]*entry)}
}

// Lock bloqueia a chave e retorna a função que a libera.
func (k *KeyedMutex) Lock(key int) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

// Len retorna o número de chaves com lock ativo ou aguardando.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
